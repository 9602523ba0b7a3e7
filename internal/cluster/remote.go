package cluster

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dreamware/maptree/internal/storage"
)

// RemoteBackend implements storage.Backend against a storage node's HTTP
// API. Non-2xx responses come back as *StatusError, which unwraps to
// storage.ErrNotFound, storage.ErrWrongType or storage.ErrBadPath.
type RemoteBackend struct {
	base string
}

var _ storage.Backend = (*RemoteBackend)(nil)

// NewRemoteBackend creates a backend talking to the node at addr
func NewRemoteBackend(addr string) *RemoteBackend {
	return &RemoteBackend{base: BaseURL(addr)}
}

// Addr returns the node base URL
func (r *RemoteBackend) Addr() string { return r.base }

func (r *RemoteBackend) url(resource, key string, query url.Values) string {
	u := r.base + "/" + resource + "/" + url.PathEscape(key)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// SetDocument sends doc as the raw request body
func (r *RemoteBackend) SetDocument(ctx context.Context, key, path string, doc []byte) error {
	_, err := doRaw(ctx, http.MethodPut, r.url("doc", key, url.Values{"path": {path}}), bytes.NewReader(doc))
	return err
}

// GetDocument returns the raw JSON of the node at path
func (r *RemoteBackend) GetDocument(ctx context.Context, key, path string) ([]byte, error) {
	return doRaw(ctx, http.MethodGet, r.url("doc", key, url.Values{"path": {path}}), nil)
}

func (r *RemoteBackend) HashPutAll(ctx context.Context, key string, fields map[string]string) error {
	return PutJSON(ctx, r.url("hash", key, nil), HashRequest{Fields: fields}, nil)
}

func (r *RemoteBackend) HashGet(ctx context.Context, key, field string) (string, error) {
	var resp HashFieldResponse
	if err := GetJSON(ctx, r.url("hash", key, url.Values{"field": {field}}), &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (r *RemoteBackend) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	var resp HashResponse
	if err := GetJSON(ctx, r.url("hash", key, nil), &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (r *RemoteBackend) ListPushAll(ctx context.Context, key string, items []string) error {
	return PostJSON(ctx, r.url("list", key, nil), ListRequest{Items: items}, nil)
}

func (r *RemoteBackend) ListRange(ctx context.Context, key string, start, end int) ([]string, error) {
	q := url.Values{
		"start": {strconv.Itoa(start)},
		"end":   {strconv.Itoa(end)},
	}
	var resp ListResponse
	if err := GetJSON(ctx, r.url("list", key, q), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (r *RemoteBackend) TypeOf(ctx context.Context, key string) (storage.KeyType, error) {
	var resp TypeResponse
	if err := GetJSON(ctx, r.url("type", key, nil), &resp); err != nil {
		return storage.TypeNone, err
	}
	return resp.Type, nil
}

func (r *RemoteBackend) Delete(ctx context.Context, key string) error {
	_, err := doRaw(ctx, http.MethodDelete, r.url("keys", key, nil), nil)
	return err
}

// Status fetches the node's /info
func (r *RemoteBackend) Status(ctx context.Context) (NodeStatus, error) {
	var st NodeStatus
	err := GetJSON(ctx, r.base+"/info", &st)
	return st, err
}
