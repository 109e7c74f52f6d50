// Command srt2txt converts an SRT subtitle file into a timestamped
// transcript with one "[start - end] text" line per cue.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chaz8081/gostt-wer/internal/transcript"
)

func main() {
	out := flag.String("o", "", "output transcript path (default: input with .txt extension, - for stdout)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: srt2txt [-o out.txt] input.srt")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	in := flag.Arg(0)

	dest := *out
	if dest == "" {
		dest = strings.TrimSuffix(in, ".srt") + ".txt"
	}

	if err := convert(in, dest); err != nil {
		log.Fatalf("srt2txt: %v", err)
	}
	if dest != "-" {
		log.Printf("Transcript saved to %s", dest)
	}
}

// convert writes the cues of the SRT file in to dest, or to stdout when
// dest is "-".
func convert(in, dest string) error {
	f, err := os.Open(in)
	if err != nil {
		return &transcript.SourceError{Path: in, Err: err}
	}
	defer f.Close()

	cues, err := transcript.ParseSRT(f)
	if err != nil {
		return err
	}

	if dest == "-" {
		return transcript.WriteTranscript(os.Stdout, cues)
	}

	o, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if err := transcript.WriteTranscript(o, cues); err != nil {
		o.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := o.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	return nil
}
