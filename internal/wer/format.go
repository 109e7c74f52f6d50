package wer

import (
	"fmt"
	"strconv"
)

// DefaultPrecision is the number of significant digits used by the CLI.
const DefaultPrecision = 4

// Format renders a WER percentage with the given number of significant
// digits, e.g. Format(100.0/6, 4) == "16.67".
func Format(v float64, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return strconv.FormatFloat(v, 'g', precision, 64)
}

// Sentence renders the one-line summary printed by the wer command.
func Sentence(v float64, precision int) string {
	return fmt.Sprintf("The Word Error Rate (WER) is: %s %%", Format(v, precision))
}
