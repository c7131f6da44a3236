package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
)

// newTestIndex points a real client at an httptest server that mimics the
// two Elasticsearch endpoints we use.
func newTestIndex(t *testing.T, handler http.HandlerFunc) *UserIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewUserIndex(es, "users")
}

func TestIndex_SendsDocumentWithoutPassword(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	u := &entity.User{ID: "u1", Name: "Gautam", Email: "g@example.com", Password: "$2a$hash",
		ProfileImage: entity.DefaultProfileImage(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, x.Index(context.Background(), u))

	assert.Equal(t, "/users/_doc/u1", gotPath)
	assert.Equal(t, "g@example.com", gotBody["email"])
	assert.NotContains(t, gotBody, "password")
	for _, v := range gotBody {
		if s, ok := v.(string); ok {
			assert.False(t, strings.Contains(s, "$2a$"))
		}
	}
}

func TestIndex_ErrorStatus(t *testing.T) {
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})

	err := x.Index(context.Background(), &entity.User{ID: "u1"})
	assert.Error(t, err)
}

func TestSearch_ParsesHits(t *testing.T) {
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/_search", r.URL.Path)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"u1","_source":{"id":"u1","name":"Gautam","email":"g@example.com","profile_image_url":"https://x/y.png"}},
			{"_id":"u2","_source":{"name":"No Id","email":"n@example.com"}}
		]}}`))
	})

	users, err := x.Search(context.Background(), "gautam", 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "https://x/y.png", users[0].ProfileImage.SecureURL)
	assert.Equal(t, "u2", users[1].ID)
}

func TestSearchQuery_Shape(t *testing.T) {
	q := searchQuery("bob", 5)
	assert.Equal(t, 5, q["size"])
	mm := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "bob", mm["query"])
	assert.Equal(t, []string{"email^2", "name"}, mm["fields"])
}
