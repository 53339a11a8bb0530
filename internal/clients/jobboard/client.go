package jobboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/httpx"
	"github.com/talentloop/talentloop-backend/internal/platform/envutil"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// Client queries the job-board aggregator API with a search spec's parameters
// and maps the hits to raw job rows. Satisfies fetchrun.JobSource.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	pageSize   int
}

func NewClient(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(envutil.String("JOBBOARD_BASE_URL", ""), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing JOBBOARD_BASE_URL")
	}
	return &Client{
		log:        log.With("service", "JobBoardClient"),
		baseURL:    baseURL,
		apiKey:     envutil.String("JOBBOARD_API_KEY", ""),
		httpClient: &http.Client{Timeout: envutil.DurationSeconds("JOBBOARD_TIMEOUT_SECONDS", 30)},
		maxRetries: envutil.Int("JOBBOARD_MAX_RETRIES", 3),
		pageSize:   envutil.Int("JOBBOARD_PAGE_SIZE", 100),
	}, nil
}

type searchRequest struct {
	Platforms json.RawMessage `json:"platforms,omitempty"`
	Params    json.RawMessage `json:"params"`
	Limit     int             `json:"limit"`
}

type searchHit struct {
	Platform     string         `json:"platform"`
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	BudgetMin    *float64       `json:"budget_min"`
	BudgetMax    *float64       `json:"budget_max"`
	ClientRating *float64       `json:"client_rating"`
	PostedAt     *time.Time     `json:"posted_at"`
	Extra        datatypes.JSON `json:"extra"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

func (c *Client) Search(ctx context.Context, spec *types.SearchSpec) ([]*types.RawJob, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec required")
	}
	req := searchRequest{
		Platforms: json.RawMessage(spec.Platforms),
		Params:    json.RawMessage(spec.Params),
		Limit:     c.pageSize,
	}

	var resp searchResponse
	if err := c.do(ctx, "/v1/jobs/search", req, &resp); err != nil {
		return nil, err
	}

	out := make([]*types.RawJob, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if hit.Platform == "" || hit.ID == "" {
			c.log.Warn("dropping hit without platform identity", "platform", hit.Platform, "id", hit.ID)
			continue
		}
		out = append(out, &types.RawJob{
			Platform:      hit.Platform,
			PlatformJobID: hit.ID,
			Title:         hit.Title,
			Description:   hit.Description,
			BudgetMin:     hit.BudgetMin,
			BudgetMax:     hit.BudgetMax,
			ClientRating:  hit.ClientRating,
			PostedAt:      hit.PostedAt,
			Extra:         hit.Extra,
		})
	}
	return out, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("jobboard http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *Client) do(ctx context.Context, path string, body any, out any) error {
	backoff := time.Second

	for attempt := 0; ; attempt++ {
		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			return json.Unmarshal(raw, out)
		}
		if attempt >= c.maxRetries || !httpx.RetryableError(err) {
			return err
		}
		delay := httpx.BackoffDelay(resp, backoff, 30*time.Second)
		c.log.Warn("jobboard request retrying", "path", path, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
