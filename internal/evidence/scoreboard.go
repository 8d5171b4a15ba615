package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/fixtureverify/internal/logger"
	"github.com/rewired-gh/fixtureverify/internal/models"
)

// ScoreboardClient fetches live event listings, one endpoint per sport.
type ScoreboardClient struct {
	baseURL        string
	sports         map[string]string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// scoreboardResponse is the payload of one sport endpoint.
type scoreboardResponse struct {
	Events []models.LiveEvent `json:"events"`
}

// NewScoreboardClient creates a client for baseURL. sports maps a sport key
// to its endpoint path, e.g. "football" -> "/soccer/eng.1/scoreboard".
func NewScoreboardClient(baseURL string, sports map[string]string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *ScoreboardClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ScoreboardClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		sports:  sports,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchLiveEvents fetches every configured sport. A sport whose fetch fails
// is left out of the result and reported in the error map; the others are
// still returned.
func (c *ScoreboardClient) FetchLiveEvents(ctx context.Context) (map[string][]models.LiveEvent, map[string]error) {
	keys := make([]string, 0, len(c.sports))
	for sport := range c.sports {
		keys = append(keys, sport)
	}
	sort.Strings(keys)

	live := make(map[string][]models.LiveEvent, len(keys))
	failed := map[string]error{}
	for _, sport := range keys {
		events, err := c.FetchSport(ctx, sport)
		if err != nil {
			logger.Warn("Scoreboard fetch for %s failed: %v", sport, err)
			failed[sport] = err
			continue
		}
		logger.Debug("Scoreboard returned %d events for %s", len(events), sport)
		live[sport] = events
	}
	return live, failed
}

// FetchSport fetches the listing for one configured sport key.
func (c *ScoreboardClient) FetchSport(ctx context.Context, sport string) ([]models.LiveEvent, error) {
	path, ok := c.sports[sport]
	if !ok {
		return nil, fmt.Errorf("no scoreboard endpoint for sport %q", sport)
	}
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}
	defer resp.Body.Close()

	var response scoreboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode scoreboard: %w", err)
	}

	events := make([]models.LiveEvent, 0, len(response.Events))
	for _, ev := range response.Events {
		if ev.Name == "" || ev.Date == "" {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// doRequest performs HTTP request with retry logic
func (c *ScoreboardClient) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
