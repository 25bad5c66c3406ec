package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/clipscore/internal/domain/model"
)

// submit outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// httpClient wraps http.Client with the service routes.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (c *httpClient) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func (c *httpClient) submit(ctx context.Context, doc *model.Document) string {
	status, _, err := c.do(ctx, http.MethodPost, "/videos", doc)
	switch {
	case err != nil:
		return outcomeFailed
	case status == http.StatusAccepted:
		return outcomeAccepted
	case status == http.StatusOK:
		return outcomeDuplicate
	case status == http.StatusBadRequest || status == http.StatusTooManyRequests:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}

// rank returns the entry for id; found is false on 404.
func (c *httpClient) rank(ctx context.Context, id string) (entry model.Entry, found bool, err error) {
	status, data, err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Entry{}, false, err
	}
	switch status {
	case http.StatusOK:
		if err := json.Unmarshal(data, &entry); err != nil {
			return model.Entry{}, false, fmt.Errorf("decode rank: %w", err)
		}
		return entry, true, nil
	case http.StatusNotFound:
		return model.Entry{}, false, nil
	default:
		return model.Entry{}, false, fmt.Errorf("rank %s: status %d", id, status)
	}
}

func (c *httpClient) leaderboard(ctx context.Context, n int) ([]model.Entry, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(n), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("leaderboard: status %d: %s", status, bytes.TrimSpace(data))
	}
	var entries []model.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return entries, nil
}
