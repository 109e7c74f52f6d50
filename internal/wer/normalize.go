// Package wer computes word error rate between a reference transcript and a
// hypothesis transcript.
//
// Text is first turned into a token sequence (Normalize or Tokenize), the
// sequences are aligned with a word-level Levenshtein distance, and the
// distance is reported as a percentage of the reference length.
package wer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Mode selects how raw text becomes tokens.
type Mode int

const (
	// Normalized lowercases, strips punctuation and splits on whitespace.
	Normalized Mode = iota
	// Raw splits on whitespace only. Case and punctuation are significant.
	Raw
)

// String returns the config spelling of m.
func (m Mode) String() string {
	if m == Raw {
		return "raw"
	}
	return "normalized"
}

// Tokens converts text into a token sequence using mode m.
func (m Mode) Tokens(text string) []string {
	if m == Raw {
		return Tokenize(text)
	}
	return Normalize(text)
}

// Normalize lowercases text, strips punctuation and splits it into words.
// The result never contains empty tokens; text with no words yields nil.
func Normalize(text string) []string {
	// Compose first so compatibility singletons (e.g. U+1FEF -> '`') are
	// visible to the punctuation filter.
	s := norm.NFC.String(text)
	s = strings.Map(func(r rune) rune {
		if isPunct(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	// Dropping punctuation can leave a base letter next to a combining mark.
	s = norm.NFC.String(s)
	return fields(s)
}

// Tokenize splits text on runs of whitespace without altering the words.
func Tokenize(text string) []string {
	return fields(text)
}

func fields(s string) []string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil
	}
	return f
}

// isPunct follows the C locale ispunct for ASCII (every printable character
// that is not a letter, digit or space) and unicode.IsPunct above it.
func isPunct(r rune) bool {
	if r < utf8.RuneSelf {
		switch {
		case r <= ' ' || r == 0x7f:
			return false
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return false
		}
		return true
	}
	return unicode.IsPunct(r)
}
