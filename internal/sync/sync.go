package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/nibras/internal/config"
	"github.com/conorfennell/nibras/internal/corpus"
	"github.com/conorfennell/nibras/internal/gitsource"
)

// Recorder stores what a corpus load produced.
type Recorder interface {
	RecordSync(path, fingerprint string, recordCount int) (int64, error)
}

// Resolve returns the local path of the corpus document. When a git URL is
// configured the repository is cloned or pulled first and the path is taken
// relative to the checkout. A failed pull over an existing checkout falls
// back to that checkout.
func Resolve(ctx context.Context, cfg config.CorpusConfig, progress io.Writer) (string, error) {
	if cfg.GitURL == "" {
		return cfg.Path, nil
	}

	localRepoPath, err := gitURLToLocalPath(cfg.RepoDir, cfg.GitURL)
	if err != nil {
		return "", fmt.Errorf("determining local path for %s: %w", cfg.GitURL, err)
	}
	if err := os.MkdirAll(filepath.Dir(localRepoPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("creating repos directory: %w", err)
	}

	docPath := filepath.Join(localRepoPath, cfg.Path)
	if err := gitsource.Sync(ctx, cfg.GitURL, localRepoPath, progress); err != nil {
		if _, statErr := os.Stat(docPath); statErr == nil {
			slog.Warn("Git sync failed, using existing checkout", "url", cfg.GitURL, "error", err)
			return docPath, nil
		}
		return "", err
	}
	if head, err := gitsource.Head(localRepoPath); err == nil {
		slog.Info("Corpus revision", "commit", head)
	}
	return docPath, nil
}

// Run resolves and loads the corpus and records the result when rec is
// non-nil. The returned index is never nil: on failure it is empty.
func Run(ctx context.Context, cfg config.CorpusConfig, rec Recorder, progress io.Writer) (*corpus.Index, error) {
	slog.Info("Starting corpus sync", "path", cfg.Path, "git_url", cfg.GitURL)

	path, err := Resolve(ctx, cfg, progress)
	if err != nil {
		slog.Error("Failed to resolve corpus", "error", err)
		return corpus.New(nil), err
	}

	idx := corpus.Load(path)
	if idx.Len() == 0 {
		return idx, fmt.Errorf("corpus at %s is empty or unreadable", path)
	}

	if rec != nil {
		if _, err := rec.RecordSync(path, idx.Fingerprint(), idx.Len()); err != nil {
			slog.Warn("Failed to record corpus sync", "path", path, "error", err)
		}
	}

	slog.Info("Corpus sync complete", "path", path, "records", idx.Len())
	return idx, nil
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && parsedURL.Scheme == "file" {
		return filepath.Join(baseDir, "local", strings.TrimSuffix(filepath.Base(parsedURL.Path), ".git")), nil
	}
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		if filepath.IsAbs(repoURL) {
			return filepath.Join(baseDir, "local", strings.TrimSuffix(filepath.Base(repoURL), ".git")), nil
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
