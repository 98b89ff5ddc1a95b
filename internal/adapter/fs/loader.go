package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"athleterag/internal/domain"
)

// Loader walks a directory and yields one Document per matching file.
// The athlete name is fixed per Load call; an optional topic is taken from
// the file's parent directory so a layout like career/, injuries/,
// results/ carries through to provenance.
type Loader struct {
	athleteName   string
	includes      []string
	excludes      []string
	minTextLength int
}

func NewLoader(athleteName string, includes, excludes []string, minTextLength int) *Loader {
	if len(includes) == 0 {
		includes = []string{"**/*.txt", "**/*.md"}
	}
	return &Loader{
		athleteName:   athleteName,
		includes:      includes,
		excludes:      excludes,
		minTextLength: minTextLength,
	}
}

func (l *Loader) Load(root string) ([]domain.Document, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if l.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !l.shouldInclude(relPath) || l.shouldExclude(relPath) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		text := string(data)
		if len(strings.TrimSpace(text)) < l.minTextLength {
			return nil
		}

		docs = append(docs, domain.Document{
			ID:          generateDocID(relPath),
			AthleteName: l.athleteName,
			Topic:       topicFromPath(relPath),
			Title:       titleFromPath(relPath),
			Text:        text,
			RetrievedAt: info.ModTime(),
		})
		return nil
	})

	return docs, err
}

func (l *Loader) shouldInclude(path string) bool {
	for _, pattern := range l.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (l *Loader) shouldExclude(path string) bool {
	for _, pattern := range l.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// generateDocID creates a unique ID for a document based on its path.
func generateDocID(relPath string) string {
	hash := sha256.Sum256([]byte(relPath))
	return hex.EncodeToString(hash[:8])
}

func topicFromPath(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	return filepath.Base(dir)
}

func titleFromPath(relPath string) string {
	base := filepath.Base(relPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(name, "_", " ")
}
