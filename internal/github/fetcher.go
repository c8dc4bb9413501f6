package github

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"

	"github.com/bull/wattsaver/internal/markdown"
	"github.com/bull/wattsaver/internal/source"
)

// Fetcher loads a fixed list of corpus files from one repository directory.
// It implements source.Loader.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
	ref      string
	files    []string
	renderer *markdown.Renderer
	logger   *slog.Logger
}

// NewFetcher creates a fetcher for files under owner/repo/basePath at ref.
// An empty ref uses the default branch; empty files uses source.DefaultFiles.
func NewFetcher(client *Client, owner, repo, basePath, ref string, files []string, logger *slog.Logger) *Fetcher {
	if len(files) == 0 {
		files = source.DefaultFiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
		ref:      ref,
		files:    files,
		renderer: markdown.NewRenderer(),
		logger:   logger,
	}
}

// ParseRepoPath splits "owner/repo/dir/sub" into its parts.
func ParseRepoPath(spec string) (owner, repo, basePath string, err error) {
	parts := strings.SplitN(strings.Trim(spec, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("invalid repository path %q: want owner/repo[/dir]", spec)
	}
	if len(parts) == 3 {
		basePath = parts[2]
	}
	return parts[0], parts[1], basePath, nil
}

// Load fetches each file, skipping the ones GitHub cannot serve.
func (f *Fetcher) Load(ctx context.Context) ([]source.Document, []*source.IngestionError) {
	var docs []source.Document
	var failed []*source.IngestionError

	for _, name := range f.files {
		content, err := f.fetchFile(ctx, name)
		if err != nil {
			f.logger.Warn("Failed to fetch document", "source", name, "repo", f.owner+"/"+f.repo, "error", err)
			failed = append(failed, &source.IngestionError{SourceID: name, Err: err})
			continue
		}
		docs = append(docs, source.NewDocument(f.renderer, name, []byte(content)))
	}

	return docs, failed
}

// fetchFile fetches and decodes the content of one file.
func (f *Fetcher) fetchFile(ctx context.Context, name string) (string, error) {
	fullPath := path.Join(f.basePath, name)

	var opts *github.RepositoryContentGetOptions
	if f.ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: f.ref}
	}

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, opts)
	if err != nil {
		return "", fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("%s is not a file", fullPath)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}
	return content, nil
}
