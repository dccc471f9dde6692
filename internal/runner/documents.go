package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListDocuments returns the full paths of the .txt resumes in dir, sorted by
// name. An empty directory is an error since there would be nothing to score.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no .txt documents found in %q", dir)
	}

	sort.Strings(paths)
	return paths, nil
}

func baseName(path string) string {
	return filepath.Base(path)
}
