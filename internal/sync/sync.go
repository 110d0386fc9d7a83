package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cgdx/aws-certification-practice/internal/fingerprint"
	"github.com/Cgdx/aws-certification-practice/internal/gitsource"
	"github.com/Cgdx/aws-certification-practice/internal/importer"
	"github.com/Cgdx/aws-certification-practice/internal/storage"
)

// IsGitPath reports whether a source path refers to a git repository
// rather than a local directory.
func IsGitPath(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// RunSync iterates over all question bank sources and reconciles each
// into the catalog.
func RunSync(db *storage.DB, reposDir string) error {
	slog.Info("starting sync for all question bank sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		sourceToReconcile := source

		if source.Type == "git" {
			localRepoPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("error syncing git repo", "url", source.Path, "error", err)
				continue
			}
			sourceToReconcile.Path = localRepoPath
		}

		reconcileLocalSource(db, &sourceToReconcile)
	}
	slog.Info("sync complete")
	return nil
}

// reconcileLocalSource walks a source directory for question bank JSON
// files, inserts questions it has not seen, and prunes catalog entries
// whose bank file no longer contains them.
func reconcileLocalSource(db *storage.DB, source *storage.Source) {
	var imported, parsed int
	var importErrors []error
	foundHashes := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		questions, parseErr := importer.ParseFile(path)
		if parseErr != nil {
			importErrors = append(importErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}

		for _, q := range questions {
			parsed++
			hash := fingerprint.Hash(q)
			foundHashes[hash] = true

			existing, findErr := db.FindQuestionByHash(hash)
			if findErr != nil {
				importErrors = append(importErrors, fmt.Errorf("db check for %s: %w", hash, findErr))
				continue
			}
			if existing == nil {
				if _, insertErr := db.InsertQuestion(q, hash, source.ID); insertErr != nil {
					importErrors = append(importErrors, fmt.Errorf("db insert for %s: %w", hash, insertErr))
					continue
				}
				imported++
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking source directory", "path", source.Path, "error", walkErr)
		return
	}

	dbHashes, err := db.QuestionHashesBySourceID(source.ID)
	if err != nil {
		slog.Error("error getting questions for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, hash := range dbHashes {
		if !foundHashes[hash] {
			orphaned++
			if err := db.DeleteQuestionByHash(hash); err != nil {
				slog.Warn("failed to delete orphaned question", "hash", hash, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_questions", parsed,
		"imported", imported,
		"orphaned_deleted", orphaned,
		"errors", len(importErrors),
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-style address: git@host:user/repo.git
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
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
