// Package results persists scored evaluation records as per-provider CSV
// files, one file per document/model pair.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"llmgrader/internal/parser"
	"llmgrader/internal/questionnaire"
)

// Writer lays out CSV output under a root directory. Each provider gets its
// own output_csvs_<provider> subdirectory.
type Writer struct {
	root string
}

func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// ProviderDir returns the output directory for the given provider, creating
// it if necessary.
func (w *Writer) ProviderDir(provider string) (string, error) {
	dir := filepath.Join(w.root, "output_csvs_"+provider)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %q: %w", dir, err)
	}
	return dir, nil
}

// Write stores the records as a CSV file for the document/model pair and
// returns the file path. Each record becomes one row with a 1-based
// iteration number.
func (w *Writer) Write(provider, document, model string, recs []parser.Record) (string, error) {
	if len(recs) == 0 {
		return "", fmt.Errorf("no records to write for %s/%s", document, model)
	}

	dir, err := w.ProviderDir(provider)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(document, model))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating result file %q: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header()); err != nil {
		return "", fmt.Errorf("writing header to %q: %w", path, err)
	}

	for i, rec := range recs {
		if err := cw.Write(row(document, model, i+1, rec)); err != nil {
			return "", fmt.Errorf("writing row to %q: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %q: %w", path, err)
	}

	return path, nil
}

// Header returns the CSV column names: file, model, iteration, one column
// per question, then the auxiliary fields.
func Header() []string {
	header := make([]string, 0, 3+questionnaire.NumQuestions+2)
	header = append(header, "file", "model", "iteration")
	for q := 1; q <= questionnaire.NumQuestions; q++ {
		header = append(header, fmt.Sprintf("q%d", q))
	}
	return append(header, "manipulation_check", "thought_process")
}

// FileName builds a filesystem-safe CSV name for a document/model pair.
func FileName(document, model string) string {
	base := strings.TrimSuffix(filepath.Base(document), filepath.Ext(document))
	return sanitize(base) + "_" + sanitize(model) + ".csv"
}

func row(document, model string, iteration int, rec parser.Record) []string {
	out := make([]string, 0, 3+questionnaire.NumQuestions+2)
	out = append(out, filepath.Base(document), model, strconv.Itoa(iteration))
	for _, score := range rec.Scores {
		out = append(out, strconv.Itoa(score))
	}
	return append(out, string(rec.ManipulationCheck), rec.ThoughtProcess)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}
