package publisher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/invite-harvester/internal/publisher"
)

func TestCreateDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "editor", user)
		assert.Equal(t, "app pass", pass)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Top Groups", body["title"])
		assert.Equal(t, "<p>content</p>", body["content"])
		assert.Equal(t, "draft", body["status"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "link": "https://blog.example/?p=42", "status": "draft"}`))
	}))
	defer srv.Close()

	wp := publisher.NewWordPress(srv.URL+"/", "editor", "app pass", 5*time.Second)
	post, err := wp.CreateDraft(context.Background(), "Top Groups", "<p>content</p>")
	require.NoError(t, err)
	assert.Equal(t, 42, post.ID)
	assert.Equal(t, "draft", post.Status)
}

func TestCreateDraft_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_create"}`))
	}))
	defer srv.Close()

	wp := publisher.NewWordPress(srv.URL, "editor", "wrong", 5*time.Second)
	_, err := wp.CreateDraft(context.Background(), "t", "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, publisher.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "401")
}
