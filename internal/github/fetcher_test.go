package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	gh "github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoPath(t *testing.T) {
	owner, repo, base, err := ParseRepoPath("nea/energy-tips/data/advisor")
	require.NoError(t, err)
	assert.Equal(t, "nea", owner)
	assert.Equal(t, "energy-tips", repo)
	assert.Equal(t, "data/advisor", base)

	owner, repo, base, err = ParseRepoPath("nea/energy-tips")
	require.NoError(t, err)
	assert.Equal(t, "nea", owner)
	assert.Equal(t, "energy-tips", repo)
	assert.Empty(t, base)

	_, _, _, err = ParseRepoPath("nea")
	assert.Error(t, err)
}

func TestFetcher_Load(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/nea/tips/contents/data/lighting.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"name":     "lighting.md",
			"path":     "data/lighting.md",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("# Lighting\n\nLED bulbs use up to 80% less energy.")),
		})
	})
	mux.HandleFunc("/repos/nea/tips/contents/data/missing.txt", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client := gh.NewClient(nil)
	client.BaseURL = baseURL

	fetcher := NewFetcher(&Client{Client: client}, "nea", "tips", "data", "", []string{"lighting.md", "missing.txt"}, nil)
	docs, failed := fetcher.Load(context.Background())

	require.Len(t, docs, 1)
	assert.Equal(t, "lighting.md", docs[0].SourceID)
	assert.Equal(t, "Lighting", docs[0].Title)
	assert.True(t, strings.Contains(docs[0].Text, "80% less energy"))

	require.Len(t, failed, 1)
	assert.Equal(t, "missing.txt", failed[0].SourceID)
}
