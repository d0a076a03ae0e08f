package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Submitter delivers a finished record to the results sink.
type Submitter interface {
	Submit(ctx context.Context, rec Record) (Receipt, error)
}

// LocalSubmitter appends straight to a Service in the same process.
type LocalSubmitter struct {
	Service   *Service
	UserAgent string
}

func (l *LocalSubmitter) Submit(ctx context.Context, rec Record) (Receipt, error) {
	if err := Validate(rec); err != nil {
		return Receipt{}, err
	}
	return l.Service.Submit(ctx, rec, Metadata{UserAgent: l.UserAgent, IP: "local"})
}

// Client posts records to a remote results endpoint.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

// NewClient posts to endpoint, the full URL of the submission route.
func NewClient(endpoint, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RemoteError is a non-2xx answer from the endpoint.
type RemoteError struct {
	Status        int
	Message       string
	MissingFields []string
	InvalidFields []string
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("results endpoint returned %d", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.MissingFields) > 0 {
		msg += " (missing: " + strings.Join(e.MissingFields, ", ") + ")"
	}
	if len(e.InvalidFields) > 0 {
		msg += " (invalid: " + strings.Join(e.InvalidFields, ", ") + ")"
	}
	return msg
}

func (c *Client) Submit(ctx context.Context, rec Record) (Receipt, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message       string   `json:"message"`
			MissingFields []string `json:"missingFields"`
			InvalidFields []string `json:"invalidFields"`
		}
		_ = json.Unmarshal(data, &e)
		return Receipt{}, &RemoteError{
			Status:        resp.StatusCode,
			Message:       e.Message,
			MissingFields: e.MissingFields,
			InvalidFields: e.InvalidFields,
		}
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}
