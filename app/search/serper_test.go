package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"collab-go/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerperClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		var req serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "golang generics", req.Q)
		assert.Equal(t, 2, req.Num)
		w.Write([]byte(`{"organic":[
			{"title":"A","snippet":"first","link":"https://a"},
			{"title":"B","snippet":"second","link":"https://b"},
			{"title":"C","snippet":"third","link":"https://c"}]}`))
	}))
	defer srv.Close()

	c := NewSerperClient(config.SearchConfig{Endpoint: srv.URL, APIKey: "key", Results: 2})
	got, err := c.Search(context.Background(), "golang generics")
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "A", Snippet: "first", URL: "https://a"},
		{Title: "B", Snippet: "second", URL: "https://b"},
	}, got)
}

func TestSerperClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewSerperClient(config.SearchConfig{Endpoint: srv.URL, Results: 5})
	_, err := c.Search(context.Background(), "x")
	assert.ErrorContains(t, err, "status 403")
}
