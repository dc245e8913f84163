// Package feed discovers and reads the hand-exported delimited files that
// make up the salesboard inputs. Exports arrive with inconsistent names and
// encodings, so discovery is by keyword match and reading is tolerant: the
// reader tries several delimiters and encodings and skips malformed lines.
package feed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound reports that no file in the data directory matched the
// requested keywords and extensions.
var ErrNotFound = errors.New("feed file not found")

// Locate scans dir (without recursing) for the first regular file whose
// lowercased name contains all keywords, contains none of the exclude
// keywords, and carries one of the allowed extensions. Names are tried in
// sorted order so discovery is deterministic across platforms.
//
// The exclude list exists because keyword sets for related exports can
// collide: "venta" and "completa" both appear in "preventa_completa.csv", so
// the sales feed is located with exclude=["preventa"].
func Locate(dir string, keywords, exclude, extensions []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not list data directory %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		lower := strings.ToLower(name)
		if !hasExtension(lower, extensions) {
			continue
		}
		if !containsAll(lower, keywords) {
			continue
		}
		if containsAny(lower, exclude) {
			continue
		}
		return filepath.Join(dir, name), nil
	}
	return "", fmt.Errorf("%w: no file in %q matches %v", ErrNotFound, dir, keywords)
}

func hasExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func containsAll(name string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(name, strings.ToLower(k)) {
			return false
		}
	}
	return true
}

func containsAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
