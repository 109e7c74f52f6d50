package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/gostt-wer/internal/wer"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write renders r to w in the named format. precision only affects text.
func Write(w io.Writer, r *Report, format string, precision int) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r, precision)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("batch: encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("batch: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("batch: encode yaml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("batch: unknown format %q (supported: text, json, yaml)", format)
	}
}

// WriteText renders a table with one row per pair followed by the totals.
func WriteText(w io.Writer, r *Report, precision int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWER %\tDIST\tSUB\tINS\tDEL\tREF\tHYP\tAUDIO s\tWPM\tERROR")
	for _, it := range r.Items {
		if it.Result == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\t-\t-\t%s\n", it.ID, it.Error)
			continue
		}
		res := it.Result
		audio, wpm := "-", "-"
		if it.AudioSeconds > 0 {
			audio = fmt.Sprintf("%.1f", it.AudioSeconds)
			wpm = fmt.Sprintf("%.0f", it.WordsPerMinute)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
			it.ID, wer.Format(res.WER, precision), res.Distance,
			res.Substitutions, res.Insertions, res.Deletions,
			res.RefWords, res.HypWords, audio, wpm)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("batch: write table: %w", err)
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Run:        %s (%s)\n", r.RunID, r.Mode)
	fmt.Fprintf(w, "Pairs:      %d scored, %d failed\n", r.Pairs-r.Failed, r.Failed)
	fmt.Fprintf(w, "Corpus WER: %s %% (%d edits / %d reference words)\n",
		wer.Format(r.CorpusWER, precision), r.Distance, r.RefWords)
	_, err := fmt.Fprintf(w, "Mean WER:   %s %%\n", wer.Format(r.MeanWER, precision))
	return err
}
