package wer

// EditDistance returns the minimum number of word insertions, deletions and
// substitutions that turn reference into hypothesis.
//
// Only two rows of the (m+1)x(n+1) table are live at a time.
func EditDistance(reference, hypothesis []string) int {
	m, n := len(reference), len(hypothesis)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := range prev {
		prev[j] = j // inserting all hyp words
	}

	for i := 1; i <= m; i++ {
		curr[0] = i // deleting all ref words
		for j := 1; j <= n; j++ {
			if reference[i-1] == hypothesis[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(
				prev[j-1], // substitution
				curr[j-1], // insertion
				prev[j],   // deletion
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// Alignment is the full edit table between two token sequences.
// Cell (i, j) holds the distance between reference[:i] and hypothesis[:j].
type Alignment struct {
	ref, hyp []string
	cols     int
	cells    []int
}

// Align fills the complete (m+1)x(n+1) edit table. Row 0 and column 0 hold
// the identity costs j and i.
func Align(reference, hypothesis []string) *Alignment {
	m, n := len(reference), len(hypothesis)
	a := &Alignment{
		ref:   reference,
		hyp:   hypothesis,
		cols:  n + 1,
		cells: make([]int, (m+1)*(n+1)),
	}

	for i := 0; i <= m; i++ {
		a.set(i, 0, i)
	}
	for j := 0; j <= n; j++ {
		a.set(0, j, j)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if reference[i-1] == hypothesis[j-1] {
				a.set(i, j, a.At(i-1, j-1))
				continue
			}
			a.set(i, j, 1+min(a.At(i-1, j-1), a.At(i, j-1), a.At(i-1, j)))
		}
	}
	return a
}

// At returns cell (i, j).
func (a *Alignment) At(i, j int) int { return a.cells[i*a.cols+j] }

func (a *Alignment) set(i, j, v int) { a.cells[i*a.cols+j] = v }

// Distance returns the bottom-right cell.
func (a *Alignment) Distance() int { return a.At(len(a.ref), len(a.hyp)) }

// Counts walks one optimal path back from the bottom-right cell and
// classifies every edit on it. Ties prefer a match, then a substitution,
// then a deletion, then an insertion. subs+ins+dels always equals Distance.
func (a *Alignment) Counts() (subs, ins, dels int) {
	i, j := len(a.ref), len(a.hyp)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a.ref[i-1] == a.hyp[j-1]:
			i--
			j--
		case i > 0 && j > 0 && a.At(i, j) == a.At(i-1, j-1)+1:
			subs++
			i--
			j--
		case i > 0 && a.At(i, j) == a.At(i-1, j)+1:
			// Reference word missing from hypothesis.
			dels++
			i--
		default:
			// Extra word in hypothesis.
			ins++
			j--
		}
	}
	return subs, ins, dels
}
