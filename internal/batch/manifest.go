// Package batch scores many reference/hypothesis pairs listed in a manifest
// and aggregates them into a corpus report.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Pair is one manifest row.
type Pair struct {
	ID         string
	Reference  string
	Hypothesis string
	Audio      string // optional source WAV
}

// LoadManifest reads a manifest file. Relative paths inside it are resolved
// against the manifest's directory.
func LoadManifest(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch: open manifest: %w", err)
	}
	defer f.Close()

	return ParseManifest(f, filepath.Dir(path))
}

// ParseManifest reads tab-separated rows of
//
//	id  reference  hypothesis  [audio.wav]
//
// Blank lines and lines starting with '#' are ignored.
func ParseManifest(r io.Reader, baseDir string) ([]Pair, error) {
	var pairs []Pair
	seen := make(map[string]int)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 3 || len(cols) > 4 {
			return nil, fmt.Errorf("batch: manifest line %d: want 3 or 4 tab-separated columns, got %d", lineNo, len(cols))
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if cols[0] == "" {
			return nil, fmt.Errorf("batch: manifest line %d: empty id", lineNo)
		}
		if prev, ok := seen[cols[0]]; ok {
			return nil, fmt.Errorf("batch: manifest line %d: duplicate id %q (first on line %d)", lineNo, cols[0], prev)
		}
		seen[cols[0]] = lineNo

		p := Pair{
			ID:         cols[0],
			Reference:  resolve(baseDir, cols[1]),
			Hypothesis: resolve(baseDir, cols[2]),
		}
		if len(cols) == 4 && cols[3] != "" {
			p.Audio = resolve(baseDir, cols[3])
		}
		pairs = append(pairs, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("batch: read manifest: %w", err)
	}

	return pairs, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
