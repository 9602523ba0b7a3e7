package cluster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/shard"
	"github.com/dreamware/maptree/internal/storage"
)

func newTestNode(t *testing.T) (*RemoteBackend, *shard.Set) {
	t.Helper()
	set := shard.NewSet(4)
	status := func() NodeStatus {
		st := set.Stats()
		return NodeStatus{Node: NodeInfo{ID: "test"}, Keys: st.Keys, Bytes: st.Bytes, Shards: set.Info()}
	}
	server := httptest.NewServer(NewNodeHandler(set, status))
	t.Cleanup(server.Close)
	return NewRemoteBackend(server.URL), set
}

func TestRemoteDocument(t *testing.T) {
	ctx := context.Background()
	b, set := newTestNode(t)

	doc := `{"a":{"b":1,"c":null},"d":[1,2,3]}`
	require.NoError(t, b.SetDocument(ctx, "r:1", "$", []byte(doc)))

	raw, err := b.GetDocument(ctx, "r:1", "$")
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(raw))

	raw, err = b.GetDocument(ctx, "r:1", codec.Selector("d[2]"))
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))

	raw, err = b.GetDocument(ctx, "r:1", codec.Selector("a.c"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	_, err = b.GetDocument(ctx, "r:1", codec.Selector("a.zz"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = b.SetDocument(ctx, "r:1", "$", []byte(`{"a":`))
	assert.Error(t, err)

	typ, err := set.TypeOf(ctx, "r:1")
	require.NoError(t, err)
	assert.Equal(t, storage.TypeDocument, typ, "data lands in the node's shard set")
}

func TestRemoteHash(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestNode(t)

	fields := map[string]string{"a.b": "1", "": codec.NullSentinel, "e[0].f": "x"}
	require.NoError(t, b.HashPutAll(ctx, "h", fields))

	v, err := b.HashGet(ctx, "h", "e[0].f")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = b.HashGet(ctx, "h", "")
	require.NoError(t, err, "an empty field name is a real field")
	assert.Equal(t, codec.NullSentinel, v)

	all, err := b.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, fields, all)

	_, err = b.HashGet(ctx, "h", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = b.HashGetAll(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRemoteList(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestNode(t)

	require.NoError(t, b.ListPushAll(ctx, "l/with/slashes", []string{"1", "2"}))
	require.NoError(t, b.ListPushAll(ctx, "l/with/slashes", []string{"3"}))

	items, err := b.ListRange(ctx, "l/with/slashes", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, items)

	items, err = b.ListRange(ctx, "l/with/slashes", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, items)

	items, err = b.ListRange(ctx, "l/with/slashes", 5, 9)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = b.HashGet(ctx, "l/with/slashes", "x")
	assert.ErrorIs(t, err, storage.ErrWrongType)
}

func TestRemoteTypeAndDelete(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestNode(t)

	require.NoError(t, b.HashPutAll(ctx, "r:a", map[string]string{"b": "1"}))
	require.NoError(t, b.ListPushAll(ctx, "r:d", []string{"1"}))

	tests := []struct {
		key  string
		want storage.KeyType
	}{
		{"r:a", storage.TypeHash},
		{"r:d", storage.TypeList},
		{"r:none", storage.TypeNone},
	}
	for _, tt := range tests {
		typ, err := b.TypeOf(ctx, tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, typ, tt.key)
	}

	require.NoError(t, b.Delete(ctx, "r:d"))
	require.NoError(t, b.Delete(ctx, "r:d"), "deleting a missing key is not an error")
	typ, err := b.TypeOf(ctx, "r:d")
	require.NoError(t, err)
	assert.Equal(t, storage.TypeNone, typ)
}

func TestRemoteStatus(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestNode(t)
	require.NoError(t, b.HashPutAll(ctx, "k", map[string]string{"f": "v"}))

	st, err := b.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", st.Node.ID)
	assert.Equal(t, 1, st.Keys)
	assert.Len(t, st.Shards, 4)
}

func TestNodeHandlerErrors(t *testing.T) {
	set := shard.NewSet(1)
	server := httptest.NewServer(NewNodeHandler(set, func() NodeStatus { return NodeStatus{} }))
	defer server.Close()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"bad list range", http.MethodGet, "/list/k?start=x", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/type/k", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound},
		{"health", http.MethodGet, "/health", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	set.Shard(0).SetState(shard.ShardStateDraining)
	err := NewRemoteBackend(server.URL).HashPutAll(context.Background(), "k", map[string]string{"a": "b"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}
