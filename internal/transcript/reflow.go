package transcript

import "strings"

// DefaultWordsPerLine is the line width used by the reflow command.
const DefaultWordsPerLine = 13

// Reflow rewraps text so every line holds wordsPerLine whitespace-separated
// words (the last line may hold fewer). Lines are joined with "\n" and there
// is no trailing newline.
func Reflow(text string, wordsPerLine int) string {
	if wordsPerLine <= 0 {
		wordsPerLine = DefaultWordsPerLine
	}
	words := strings.Fields(text)

	lines := make([]string, 0, (len(words)+wordsPerLine-1)/wordsPerLine)
	for i := 0; i < len(words); i += wordsPerLine {
		end := min(i+wordsPerLine, len(words))
		lines = append(lines, strings.Join(words[i:end], " "))
	}
	return strings.Join(lines, "\n")
}
