// Command reflow rewraps a transcript to a fixed number of words per line.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chaz8081/gostt-wer/internal/transcript"
)

func main() {
	n := flag.Int("n", transcript.DefaultWordsPerLine, "words per line")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: reflow [-n words] input.txt output.txt")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 || *n <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	in, out := flag.Arg(0), flag.Arg(1)

	if err := reflowFile(in, out, *n); err != nil {
		log.Fatalf("reflow: %v", err)
	}
	log.Printf("File processed successfully, saved as %s", out)
}

// reflowFile rewrites in to out with n words per line.
func reflowFile(in, out string, n int) error {
	text, err := transcript.ReadFile(in)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(transcript.Reflow(text, n)), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}
