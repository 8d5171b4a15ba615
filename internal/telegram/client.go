// Package telegram sends the run report to a Telegram chat via the Bot API.
// It formats the per-group verification counts, proposed corrections and
// current hints into a MarkdownV2 message and retries failed deliveries.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/fixtureverify/internal/engine"
	"github.com/rewired-gh/fixtureverify/internal/hints"
	"github.com/rewired-gh/fixtureverify/internal/models"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

// maxCorrectionLines bounds the corrections listed in one report.
const maxCorrectionLines = 10

// sender is the part of *tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// CorrectionLine is one proposed time correction in a report.
type CorrectionLine struct {
	FileID     string
	Title      string
	OldValue   string
	NewValue   string
	Confidence float64
	Applied    bool
}

// Report is the summary of one run.
type Report struct {
	RunID       string
	Timestamp   time.Time
	Partial     bool
	Groups      []models.GroupSummary
	Corrections []CorrectionLine
	Hints       []string
}

// NewReport assembles a Report from a finished run.
func NewReport(run models.VerificationRun, outcomes []engine.GroupOutcome, hs []hints.Hint) Report {
	r := Report{
		RunID:     run.ID,
		Timestamp: run.Timestamp,
		Partial:   run.Partial,
		Groups:    run.Results,
		Hints:     hints.Texts(hs),
	}
	for _, o := range outcomes {
		applied := make(map[int]bool, len(o.Applied))
		for _, a := range o.Applied {
			applied[a.EventIndex] = true
		}
		for _, c := range o.Result.Corrections {
			r.Corrections = append(r.Corrections, CorrectionLine{
				FileID:     o.Result.FileID,
				Title:      c.Title,
				OldValue:   c.Correction.OldValue,
				NewValue:   c.Correction.NewValue,
				Confidence: c.Correction.Confidence,
				Applied:    applied[c.EventIndex],
			})
		}
	}
	return r
}

// SendReport sends the formatted report.
func (c *Client) SendReport(r Report) error {
	return c.send(formatReport(r))
}

// SendError alerts the chat that a run failed.
func (c *Client) SendError(err error) error {
	return c.send(fmt.Sprintf("🔴 *Verification run failed*\n\n`%s`", escapeMarkdownV2(err.Error())))
}

// SendRecovery tells the chat that runs succeed again after failures.
func (c *Client) SendRecovery(failedRuns int) error {
	return c.send(fmt.Sprintf("🟢 *Verification recovered* after %d failed run\\(s\\)", failedRuns))
}

func (c *Client) send(message string) error {
	// Create message
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport formats a run report into a Telegram message
func formatReport(r Report) string {
	var b strings.Builder

	b.WriteString("📋 *Schedule Verification Report*\n\n")
	b.WriteString(fmt.Sprintf("📅 Run: %s\n", escapeMarkdownV2(r.Timestamp.UTC().Format("2006-01-02 15:04:05"))))
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("🆔 `%s`\n", escapeMarkdownV2(r.RunID)))
	}
	if r.Partial {
		b.WriteString("⚠️ _Stopped at deadline, results are partial_\n")
	}
	b.WriteString("\n")

	var checked, verified, plausible, unverified int
	for _, g := range r.Groups {
		checked += g.EventsChecked
		verified += g.Verified
		plausible += g.Plausible
		unverified += g.Unverified
	}
	b.WriteString(fmt.Sprintf("*Totals*: %d groups, %d events\n", len(r.Groups), checked))
	b.WriteString(fmt.Sprintf("   ✅ %d verified  🟡 %d plausible  ❌ %d unverified\n\n", verified, plausible, unverified))

	for i, g := range r.Groups {
		conf := escapeMarkdownV2(fmt.Sprintf("%.0f%%", g.OverallConfidence*100))
		b.WriteString(fmt.Sprintf("%d\\. %s \\(%s\\)\n", i+1, escapeMarkdownV2(g.FileID), conf))
		b.WriteString(fmt.Sprintf("   %d/%d verified", g.Verified, g.EventsChecked))
		if g.CorrectionsProposed > 0 {
			b.WriteString(fmt.Sprintf(", %d corrections \\(%d applied\\)", g.CorrectionsProposed, g.CorrectionsApplied))
		}
		b.WriteString("\n")
	}

	if len(r.Corrections) > 0 {
		b.WriteString("\n🛠 *Corrections*\n")
		for i, c := range r.Corrections {
			if i == maxCorrectionLines {
				b.WriteString(escapeMarkdownV2(fmt.Sprintf("… and %d more", len(r.Corrections)-maxCorrectionLines)) + "\n")
				break
			}
			marker := "proposed"
			if c.Applied {
				marker = "applied"
			}
			b.WriteString(fmt.Sprintf("• %s: %s → %s \\(%s, %s\\)\n",
				escapeMarkdownV2(c.Title),
				escapeMarkdownV2(c.OldValue),
				escapeMarkdownV2(c.NewValue),
				escapeMarkdownV2(fmt.Sprintf("%.0f%%", c.Confidence*100)),
				marker))
		}
	}

	if len(r.Hints) > 0 {
		b.WriteString("\n💡 *Hints*\n")
		for _, h := range r.Hints {
			b.WriteString("• " + escapeMarkdownV2(h) + "\n")
		}
	}

	return truncate(b.String(), maxMessageLength)
}

// truncate cuts s to at most limit runes without splitting an escape sequence.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := limit - 1
	if cut > 0 && runes[cut-1] == '\\' {
		cut--
	}
	return string(runes[:cut]) + "…"
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
