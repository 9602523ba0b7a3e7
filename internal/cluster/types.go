package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/shard"
	"github.com/dreamware/maptree/internal/storage"
)

// NodeInfo identifies a storage node
type NodeInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// HashRequest is the body of PUT /hash/{key}
type HashRequest struct {
	Fields map[string]string `json:"fields"`
}

// HashResponse is returned by GET /hash/{key}
type HashResponse struct {
	Fields map[string]string `json:"fields"`
}

// HashFieldResponse is returned by GET /hash/{key}?field=
type HashFieldResponse struct {
	Value string `json:"value"`
}

// ListRequest is the body of POST /list/{key}
type ListRequest struct {
	Items []string `json:"items"`
}

// ListResponse is returned by GET /list/{key}
type ListResponse struct {
	Items []string `json:"items"`
}

// TypeResponse is returned by GET /type/{key}
type TypeResponse struct {
	Type storage.KeyType `json:"type"`
}

// NodeStatus is returned by GET /info
type NodeStatus struct {
	Node   NodeInfo          `json:"node"`
	Keys   int               `json:"keys"`
	Bytes  int               `json:"bytes"`
	Shards []shard.ShardInfo `json:"shards,omitempty"`
}

// ErrorResponse is the body of every non-2xx node response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is a non-2xx response. It unwraps to the storage error the
// status stands for, so errors.Is works across the wire.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %s %s: %d: %s", e.Method, e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("http %s %s: %d", e.Method, e.URL, e.Code)
}

// Unwrap maps the status code back to a storage sentinel
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return storage.ErrNotFound
	case http.StatusConflict:
		return storage.ErrWrongType
	case http.StatusBadRequest:
		return storage.ErrBadPath
	}
	return nil
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// BaseURL turns "host:port" into "http://host:port" and drops any
// trailing slash
func BaseURL(addr string) string {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/")
}

// PostJSON sends body as JSON and decodes the response into out (if non-nil)
func PostJSON(ctx context.Context, url string, body any, out any) error {
	return doJSON(ctx, http.MethodPost, url, body, out)
}

// PutJSON sends body as JSON with PUT and decodes the response into out
func PutJSON(ctx context.Context, url string, body any, out any) error {
	return doJSON(ctx, http.MethodPut, url, body, out)
}

// GetJSON decodes the response of a GET into out
func GetJSON(ctx context.Context, url string, out any) error {
	return doJSON(ctx, http.MethodGet, url, nil, out)
}

func doJSON(ctx context.Context, method, url string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(reqBody)
	}
	raw, err := doRaw(ctx, method, url, rd)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// doRaw performs a request and returns the body of a 2xx response
func doRaw(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		se := &StatusError{Method: method, URL: url, Code: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(raw, &er) == nil {
			se.Message = er.Error
		}
		return nil, se
	}
	return raw, nil
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps storage errors onto status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrWrongType):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrBadPath), errors.Is(err, codec.ErrMalformedJSON), errors.Is(err, errBadQuery):
		status = http.StatusBadRequest
	case errors.Is(err, shard.ErrShardDraining):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
