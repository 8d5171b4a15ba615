package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

const (
	keyEvents        = "events"
	keyTime          = "time"
	keyNeedsResearch = "needsResearch"
	keySummary       = "verificationSummary"
)

// patchJSONGroup applies the run-owned fields of g to the JSON document raw.
// Unknown keys are carried through as raw values; key order is not kept.
func patchJSONGroup(raw []byte, g *models.EventGroup) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("group document is not an object")
	}

	var events []map[string]json.RawMessage
	if rawEvents, ok := doc[keyEvents]; ok {
		if err := json.Unmarshal(rawEvents, &events); err != nil {
			return nil, fmt.Errorf("failed to decode events: %w", err)
		}
	}
	if len(events) != len(g.Events) {
		return nil, fmt.Errorf("group has %d events but its file has %d", len(g.Events), len(events))
	}
	for i := range events {
		if g.Events[i].Time == "" {
			continue
		}
		if events[i] == nil {
			events[i] = map[string]json.RawMessage{}
		}
		t, err := json.Marshal(g.Events[i].Time)
		if err != nil {
			return nil, err
		}
		events[i][keyTime] = t
	}
	if len(events) > 0 {
		encoded, err := json.Marshal(events)
		if err != nil {
			return nil, err
		}
		doc[keyEvents] = encoded
	}

	if g.NeedsResearch {
		doc[keyNeedsResearch] = json.RawMessage("true")
	} else {
		delete(doc, keyNeedsResearch)
	}

	if g.VerificationSummary != nil {
		summary, err := json.Marshal(g.VerificationSummary)
		if err != nil {
			return nil, err
		}
		doc[keySummary] = summary
	}

	return json.MarshalIndent(doc, "", "  ")
}

// patchYAMLGroup applies the run-owned fields of g to the YAML document raw
// by editing its node tree, so key order and comments are kept.
func patchYAMLGroup(raw []byte, g *models.EventGroup) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("group document is not a mapping")
	}
	root := doc.Content[0]

	events := mappingValue(root, keyEvents)
	count := 0
	if events != nil && events.Kind == yaml.SequenceNode {
		count = len(events.Content)
	}
	if count != len(g.Events) {
		return nil, fmt.Errorf("group has %d events but its file has %d", len(g.Events), count)
	}
	for i := 0; i < count; i++ {
		item := events.Content[i]
		if item.Kind != yaml.MappingNode || g.Events[i].Time == "" {
			continue
		}
		setScalar(item, keyTime, "!!str", g.Events[i].Time)
	}

	if g.NeedsResearch {
		setScalar(root, keyNeedsResearch, "!!bool", "true")
	} else {
		deleteKey(root, keyNeedsResearch)
	}

	if g.VerificationSummary != nil {
		var summary yaml.Node
		if err := summary.Encode(g.VerificationSummary); err != nil {
			return nil, err
		}
		setValue(root, keySummary, &summary)
	}

	return marshalYAML(&doc)
}

func marshalYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mappingValue returns the value node for key in mapping m, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setValue(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// setScalar sets key to a scalar, editing an existing scalar in place so its
// comments stay attached.
func setScalar(m *yaml.Node, key, tag, value string) {
	if old := mappingValue(m, key); old != nil && old.Kind == yaml.ScalarNode {
		old.Tag = tag
		old.Value = value
		if old.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
			old.Style = 0
		}
		return
	}
	setValue(m, key, &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value})
}

func deleteKey(m *yaml.Node, key string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return
		}
	}
}
