package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/storage"
)

const sample = `{"a":{"b":1,"c":null},"d":[1,2,3],"e":[{"f":1},{"f":2}]}`

var samplePaths = []string{"a.b", "a.c", "d[0]", "d[1]", "d[2]", "e[0].f", "e[1].f"}

func TestDocumentWrite(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	reg := metrics.NewRegistry()
	doc := codec.MustParse(sample)

	s := NewDocument(reg)
	rec, locations, err := s.Write(ctx, b, "r1", doc)
	require.NoError(t, err)

	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, samplePaths, locations)
	assert.Equal(t, samplePaths, rec.Schema)
	assert.Equal(t, rec.CreatedAt, rec.LastAccessedAt)
	assert.False(t, rec.CreatedAt.IsZero())

	raw, err := b.GetDocument(ctx, "r1", "$")
	require.NoError(t, err)
	assert.JSONEq(t, sample, string(raw))

	raw, err = b.GetDocument(ctx, "r1", codec.Selector("e[1].f"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(raw))

	assert.Equal(t, uint64(1), reg.Timer(metrics.TimerCreate).Snapshot().Count)
}

func TestFlatHashRoundTrip(t *testing.T) {
	docs := []string{
		sample,
		`{"name":"x","tags":["a","b"],"n":{"deep":{"er":true}},"z":null}`,
		`[1,{"a":"b"},[2,3]]`,
		`"scalar"`,
		`null`,
		`{}`,
		`[]`,
	}

	for _, src := range docs {
		t.Run(src, func(t *testing.T) {
			ctx := context.Background()
			b := storage.NewMemoryBackend()
			doc := codec.MustParse(src)

			_, locations, err := NewFlatHash(nil).Write(ctx, b, "h", doc)
			require.NoError(t, err)

			want := codec.MapPaths(doc)
			require.Len(t, locations, len(want))
			for _, path := range locations {
				got, err := b.HashGet(ctx, "h", path)
				require.NoError(t, err, "path %q", path)
				assert.Equal(t, want[path], got, "path %q", path)
			}
		})
	}
}

func TestFlatHashNullRoot(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()

	_, locations, err := NewFlatHash(nil).Write(ctx, b, "h", codec.Null())
	require.NoError(t, err)
	assert.Equal(t, []string{""}, locations)

	v, err := b.HashGet(ctx, "h", "")
	require.NoError(t, err)
	assert.Equal(t, codec.NullSentinel, v)
}

func TestGroupedWrite(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	doc := codec.MustParse(sample)

	rec, locations, err := NewGrouped(nil).Write(ctx, b, "r", doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"r:a", "r:d", "r:e[0]", "r:e[1]"}, locations)
	assert.Equal(t, []string{"root", "a", "d", "e[0]", "e[1]"}, rec.Schema)

	fields, err := b.HashGetAll(ctx, "r:a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "1", "c": codec.NullSentinel}, fields)

	items, err := b.ListRange(ctx, "r:d", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, items)

	fields, err = b.HashGetAll(ctx, "r:e[1]")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f": "2"}, fields)
}

func TestGroupedWriteIsRepeatable(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	doc := codec.MustParse(`{"tags":["x","y"],"top":1}`)
	s := NewGrouped(nil)

	for i := 0; i < 3; i++ {
		_, _, err := s.Write(ctx, b, "r", doc)
		require.NoError(t, err)
	}

	items, err := b.ListRange(ctx, "r:tags", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, items, "list groups must not grow on repeated writes")

	v, err := b.HashGet(ctx, "r:root", "top")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestGroupedWrongType(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	require.NoError(t, b.ListPushAll(ctx, "r:a", []string{"stale"}))

	_, _, err := NewGrouped(nil).Write(ctx, b, "r", codec.MustParse(`{"a":{"b":1}}`))
	assert.ErrorIs(t, err, storage.ErrWrongType)
}

func TestEmptyDocuments(t *testing.T) {
	ctx := context.Background()
	strategies := []Strategy{NewDocument(nil), NewFlatHash(nil), NewGrouped(nil)}

	for _, s := range strategies {
		for _, src := range []string{`{}`, `[]`} {
			t.Run(s.Name()+" "+src, func(t *testing.T) {
				_, locations, err := s.Write(ctx, storage.NewMemoryBackend(), "k", codec.MustParse(src))
				require.NoError(t, err)
				assert.Empty(t, locations)
			})
		}
	}
}

func TestAuditSumsForEveryStrategy(t *testing.T) {
	ctx := context.Background()
	doc := codec.MustParse(sample)
	auditor := audit.NewAuditor(nil)

	tests := []struct {
		strategy Strategy
		kinds    map[audit.Kind]int
	}{
		{NewDocument(nil), map[audit.Kind]int{audit.KindString: 6, audit.KindNull: 1}},
		{NewFlatHash(nil), map[audit.Kind]int{audit.KindString: 7}},
		{NewGrouped(nil), map[audit.Kind]int{audit.KindHash: 3, audit.KindList: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.Name(), func(t *testing.T) {
			b := storage.NewMemoryBackend()
			_, locations, err := tt.strategy.Write(ctx, b, "k", doc)
			require.NoError(t, err)

			res := auditor.Audit(ctx, b, tt.strategy.Probe("k"), locations)
			assert.Equal(t, len(locations), res.Total())
			for kind, n := range tt.kinds {
				assert.Equal(t, n, res.Count(kind), "kind %s", kind)
			}
		})
	}
}
