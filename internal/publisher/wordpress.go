// Package publisher creates draft posts on a WordPress site.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnexpectedStatus is returned when WordPress does not answer 201.
var ErrUnexpectedStatus = errors.New("unexpected status from wordpress")

// Post is the subset of the created post we report back.
type Post struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// WordPress publishes through the REST API using an application password.
type WordPress struct {
	siteURL     string
	username    string
	appPassword string
	client      *http.Client
}

func NewWordPress(siteURL, username, appPassword string, timeout time.Duration) *WordPress {
	return &WordPress{
		siteURL:     strings.TrimRight(siteURL, "/"),
		username:    username,
		appPassword: appPassword,
		client:      &http.Client{Timeout: timeout},
	}
}

type draftRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// CreateDraft creates an unpublished post.
func (w *WordPress) CreateDraft(ctx context.Context, title, content string) (*Post, error) {
	payload, err := json.Marshal(draftRequest{Title: title, Content: content, Status: "draft"})
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.siteURL+"/wp-json/wp/v2/posts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(w.username, w.appPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("decode created post: %w", err)
	}
	return &post, nil
}
