package wer

// Result holds detailed word error rate results.
type Result struct {
	WER           float64 `json:"wer" yaml:"wer"`                     // percent, 0 = perfect, may exceed 100
	Distance      int     `json:"distance" yaml:"distance"`           // word-level edit distance
	RefWords      int     `json:"ref_words" yaml:"ref_words"`         // total words in reference
	HypWords      int     `json:"hyp_words" yaml:"hyp_words"`         // total words in hypothesis
	Substitutions int     `json:"substitutions" yaml:"substitutions"` // words replaced with different words
	Insertions    int     `json:"insertions" yaml:"insertions"`       // extra words in hypothesis
	Deletions     int     `json:"deletions" yaml:"deletions"`         // words missing from hypothesis
}

// CalculateWER returns the edit distance between the sequences as a
// percentage of the reference length. The value is not rounded or clamped.
func CalculateWER(reference, hypothesis []string) (float64, error) {
	if len(reference) == 0 {
		return 0, ErrEmptyReference
	}
	return rate(EditDistance(reference, hypothesis), len(reference)), nil
}

// Compute is CalculateWER plus the substitution, insertion and deletion
// breakdown of one optimal alignment.
func Compute(reference, hypothesis []string) (Result, error) {
	if len(reference) == 0 {
		return Result{}, ErrEmptyReference
	}

	a := Align(reference, hypothesis)
	d := a.Distance()
	subs, ins, dels := a.Counts()

	return Result{
		WER:           rate(d, len(reference)),
		Distance:      d,
		RefWords:      len(reference),
		HypWords:      len(hypothesis),
		Substitutions: subs,
		Insertions:    ins,
		Deletions:     dels,
	}, nil
}

// Score tokenizes both texts with mode and computes the result. Either side
// coming out empty is reported as an *EmptyInputError before any alignment.
func Score(reference, hypothesis string, mode Mode) (Result, error) {
	ref := mode.Tokens(reference)
	if len(ref) == 0 {
		return Result{}, &EmptyInputError{Side: "reference"}
	}
	hyp := mode.Tokens(hypothesis)
	if len(hyp) == 0 {
		return Result{}, &EmptyInputError{Side: "hypothesis"}
	}
	return Compute(ref, hyp)
}

func rate(distance, refWords int) float64 {
	return float64(distance) * 100.0 / float64(refWords)
}
