// Package transcript reads transcript text from disk and converts between
// the plain, timestamped and SRT forms the tools exchange.
package transcript

import (
	"fmt"
	"os"
	"regexp"

	"github.com/chaz8081/gostt-wer/internal/wer"
)

// SourceError reports a transcript file that could not be read.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("transcript: read %q: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// stampRe matches the "[HH:MM:SS,mmm - HH:MM:SS,mmm] " prefix written by
// WriteTranscript at the start of any line.
var stampRe = regexp.MustCompile(`(?m)^[ \t]*\[\d{2}:\d{2}:\d{2}[,.]\d{3} - \d{2}:\d{2}:\d{2}[,.]\d{3}\][ \t]*`)

// StripTimestamps removes the leading cue timestamp from every line of text.
// Lines without one are left as they are.
func StripTimestamps(text string) string {
	return stampRe.ReplaceAllString(text, "")
}

// ReadFile returns the whole contents of path as one string.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &SourceError{Path: path, Err: err}
	}
	return string(data), nil
}

// ReadTokens reads path and tokenizes it with mode. With stripStamps set,
// cue timestamps are removed first in wer.Normalized mode; wer.Raw always
// sees the file as written.
func ReadTokens(path string, mode wer.Mode, stripStamps bool) ([]string, error) {
	text, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if stripStamps && mode != wer.Raw {
		text = StripTimestamps(text)
	}
	return mode.Tokens(text), nil
}
