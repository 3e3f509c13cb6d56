// Package meili is the driven adapter for the hosted search index. It
// speaks the index service's HTTP API directly: document writes, task
// lookup, stats, and the one-shot administrative settings calls.
package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/msc-search/harvester/internal/core/domain"
	"github.com/msc-search/harvester/internal/core/ports/driven"
)

// Ensure Client implements the index ports.
var (
	_ driven.SearchIndex = (*Client)(nil)
	_ driven.IndexAdmin  = (*Client)(nil)
)

// Default configuration values.
const (
	DefaultHost    = "http://127.0.0.1:7700"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the index client.
type Config struct {
	// Host is the index service base URL (default: http://127.0.0.1:7700).
	Host string

	// APIKey authenticates requests; sent as a bearer token.
	APIKey string

	// Index is the index uid documents are written to.
	Index string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client is an HTTP client for one index of the search service.
type Client struct {
	http   *http.Client
	host   string
	apiKey string
	index  string
}

// APIError is a non-2xx response from the index service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meili: API error %d: %s", e.StatusCode, e.Message)
}

// taskResponse is the write-accepted acknowledgement.
type taskResponse struct {
	TaskUID int64  `json:"taskUid"`
	Status  string `json:"status"`
}

// taskDetail is the task-status lookup response.
type taskDetail struct {
	UID    int64  `json:"uid"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// statsResponse is the index stats response.
type statsResponse struct {
	NumberOfDocuments int64            `json:"numberOfDocuments"`
	IsIndexing        bool             `json:"isIndexing"`
	FieldDistribution map[string]int64 `json:"fieldDistribution"`
}

// NewClient creates a client for one index of the search service.
func NewClient(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		host:   cfg.Host,
		apiKey: cfg.APIKey,
		index:  cfg.Index,
	}
}

// AddDocuments submits documents for indexing, declaring the primary
// key, and returns the identifier of the resulting write task.
func (c *Client) AddDocuments(ctx context.Context, docs []domain.Document) (int64, error) {
	path := fmt.Sprintf("/indexes/%s/documents?primaryKey=%s", c.index, domain.PrimaryKey)

	var task taskResponse
	if err := c.do(ctx, http.MethodPost, path, docs, &task); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return task.TaskUID, nil
}

// Task looks up the state of a write task by identifier.
func (c *Client) Task(ctx context.Context, uid int64) (*driven.TaskInfo, error) {
	var detail taskDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", uid), nil, &detail); err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	info := &driven.TaskInfo{
		UID:   detail.UID,
		State: driven.TaskState(detail.Status),
	}
	if detail.Error != nil {
		info.Error = detail.Error.Message
	}
	return info, nil
}

// Stats retrieves the index stats snapshot.
func (c *Client) Stats(ctx context.Context) (*driven.IndexStats, error) {
	var stats statsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/indexes/%s/stats", c.index), nil, &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	return &driven.IndexStats{
		NumberOfDocuments: stats.NumberOfDocuments,
		IsIndexing:        stats.IsIndexing,
		FieldDistribution: stats.FieldDistribution,
	}, nil
}

// DeleteAllDocuments empties the index ahead of a full replacement
// harvest and returns the task identifier.
func (c *Client) DeleteAllDocuments(ctx context.Context) (int64, error) {
	var task taskResponse
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/indexes/%s/documents", c.index), nil, &task); err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return task.TaskUID, nil
}

// do issues one JSON request against the index service and decodes the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "failed to read response"}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
