package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Cue is one timed block of an SRT subtitle file.
type Cue struct {
	Start string // HH:MM:SS,mmm
	End   string
	Text  string
}

// maxLineSize bounds one SRT line.
const maxLineSize = 1 << 20

var timingRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2},\d{3}) --> (\d{2}:\d{2}:\d{2},\d{3})`)

// ParseSRT reads SRT cues from r. Sequence-number lines are skipped and the
// text lines of a cue are joined with single spaces. Text that appears before
// the first timing line has no timing and is dropped.
func ParseSRT(r io.Reader) ([]Cue, error) {
	var (
		cues []Cue
		cur  *Cue
		text []string
	)
	flush := func() {
		if cur != nil && len(text) > 0 {
			cur.Text = strings.Join(text, " ")
			cues = append(cues, *cur)
		}
		text = text[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)

		if m := timingRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Cue{Start: m[1], End: m[2]}
			continue
		}
		if line == "" || isDigits(line) {
			continue
		}
		text = append(text, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("transcript: read srt: %w", err)
	}
	flush()

	return cues, nil
}

// WriteTranscript writes one "[start - end] text" line per cue.
func WriteTranscript(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for _, c := range cues {
		if _, err := fmt.Fprintf(bw, "[%s - %s] %s\n", c.Start, c.End, c.Text); err != nil {
			return fmt.Errorf("transcript: write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("transcript: write: %w", err)
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
