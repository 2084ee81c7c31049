package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_backend/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	hits     []string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		hits := make([]map[string]any, 0, len(f.hits))
		for _, id := range f.hits {
			hits = append(hits, map[string]any{"_id": id})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": len(f.hits)}, "hits": hits},
		})
	default:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}
}

func newTestIndex(t *testing.T, fake *fakeES) *ESIndex {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	return NewESIndex(client, "")
}

func TestESIndex_IndexAndDelete(t *testing.T) {
	t.Parallel()

	fake := &fakeES{}
	idx := newTestIndex(t, fake)
	post := &models.Post{ID: uuid.New(), Title: "Go tips", Text: "use the context luke", OwnerID: uuid.New()}

	require.NoError(t, idx.IndexPost(context.Background(), post))
	require.NoError(t, idx.DeletePost(context.Background(), post.ID))

	require.Len(t, fake.requests, 2)
	assert.Equal(t, http.MethodPut+" /posts/_doc/"+post.ID.String(), fake.requests[0])
	assert.Contains(t, fake.bodies[0], `"title":"Go tips"`)
	assert.Equal(t, http.MethodDelete+" /posts/_doc/"+post.ID.String(), fake.requests[1])
}

func TestESIndex_Search(t *testing.T) {
	t.Parallel()

	first, second := uuid.New(), uuid.New()
	fake := &fakeES{hits: []string{first.String(), "not-a-uuid", second.String()}}
	idx := newTestIndex(t, fake)

	total, ids, err := idx.SearchPosts(context.Background(), "go", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.Contains(t, fake.bodies[0], `"multi_match"`)
}
