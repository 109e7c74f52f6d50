package batch

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/chaz8081/gostt-wer/internal/transcript"
	"github.com/chaz8081/gostt-wer/internal/wer"
)

// Options controls a batch run.
type Options struct {
	Workers         int      // 0 = GOMAXPROCS
	Mode            wer.Mode // tokenization applied to both sides
	StripTimestamps bool     // see transcript.ReadTokens
}

// Item is the outcome for one pair. Exactly one of Result and Error is set.
type Item struct {
	ID             string      `json:"id" yaml:"id"`
	Reference      string      `json:"reference" yaml:"reference"`
	Hypothesis     string      `json:"hypothesis" yaml:"hypothesis"`
	Result         *wer.Result `json:"result,omitempty" yaml:"result,omitempty"`
	RefFingerprint string      `json:"ref_fingerprint,omitempty" yaml:"ref_fingerprint,omitempty"`
	HypFingerprint string      `json:"hyp_fingerprint,omitempty" yaml:"hyp_fingerprint,omitempty"`
	Audio          string      `json:"audio,omitempty" yaml:"audio,omitempty"`
	AudioSeconds   float64     `json:"audio_seconds,omitempty" yaml:"audio_seconds,omitempty"`
	WordsPerMinute float64     `json:"words_per_minute,omitempty" yaml:"words_per_minute,omitempty"` // hypothesis words over AudioSeconds
	Error          string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report aggregates a batch run.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Mode      string    `json:"mode" yaml:"mode"`
	Started   time.Time `json:"started" yaml:"started"`
	Elapsed   string    `json:"elapsed" yaml:"elapsed"`
	Pairs     int       `json:"pairs" yaml:"pairs"`
	Failed    int       `json:"failed" yaml:"failed"`
	Distance  int       `json:"distance" yaml:"distance"`
	RefWords  int       `json:"ref_words" yaml:"ref_words"`
	CorpusWER float64   `json:"corpus_wer" yaml:"corpus_wer"` // sum(distance) / sum(ref words), percent
	MeanWER   float64   `json:"mean_wer" yaml:"mean_wer"`     // unweighted mean over scored pairs
	Items     []Item    `json:"items" yaml:"items"`
}

// Score evaluates every pair with at most opts.Workers running at once.
// A pair that fails is recorded on its Item and does not stop the others.
// The returned error is non-nil only when ctx is cancelled.
func Score(ctx context.Context, pairs []Pair, opts Options) (*Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Mode:    opts.Mode.String(),
		Started: time.Now().UTC(),
		Pairs:   len(pairs),
		Items:   make([]Item, len(pairs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pairs {
		if gctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Items[i] = scorePair(p, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	var sum float64
	for _, it := range report.Items {
		if it.Result == nil {
			report.Failed++
			continue
		}
		report.Distance += it.Result.Distance
		report.RefWords += it.Result.RefWords
		sum += it.Result.WER
	}
	if report.RefWords > 0 {
		report.CorpusWER = float64(report.Distance) * 100.0 / float64(report.RefWords)
	}
	if scored := report.Pairs - report.Failed; scored > 0 {
		report.MeanWER = sum / float64(scored)
	}
	report.Elapsed = time.Since(report.Started).Round(time.Millisecond).String()

	return report, nil
}

func scorePair(p Pair, opts Options) Item {
	it := Item{
		ID:         p.ID,
		Reference:  p.Reference,
		Hypothesis: p.Hypothesis,
		Audio:      p.Audio,
	}

	ref, err := transcript.ReadTokens(p.Reference, opts.Mode, opts.StripTimestamps)
	if err != nil {
		return fail(it, err)
	}
	if len(ref) == 0 {
		return fail(it, &wer.EmptyInputError{Side: "reference"})
	}
	hyp, err := transcript.ReadTokens(p.Hypothesis, opts.Mode, opts.StripTimestamps)
	if err != nil {
		return fail(it, err)
	}
	if len(hyp) == 0 {
		return fail(it, &wer.EmptyInputError{Side: "hypothesis"})
	}

	res, err := wer.Compute(ref, hyp)
	if err != nil {
		return fail(it, err)
	}
	it.Result = &res
	it.RefFingerprint = Fingerprint(ref)
	it.HypFingerprint = Fingerprint(hyp)

	if p.Audio != "" {
		secs, err := AudioDuration(p.Audio)
		if err != nil {
			// The score stands without the duration.
			slog.Warn("audio duration unavailable", "pair", p.ID, "audio", p.Audio, "error", err)
		} else {
			it.AudioSeconds = secs
			it.WordsPerMinute = WordsPerMinute(res.HypWords, secs)
		}
	}

	slog.Debug("scored pair", "pair", p.ID, "wer", res.WER, "distance", res.Distance, "ref_words", res.RefWords)
	return it
}

func fail(it Item, err error) Item {
	slog.Warn("pair failed", "pair", it.ID, "error", err)
	it.Error = err.Error()
	return it
}

// Fingerprint identifies a token sequence: the first 16 hex characters of
// the BLAKE2b-256 digest of the space-joined tokens. Two transcripts that
// normalize to the same words share a fingerprint.
func Fingerprint(tokens []string) string {
	sum := blake2b.Sum256([]byte(strings.Join(tokens, " ")))
	return hex.EncodeToString(sum[:])[:16]
}

// WordsPerMinute is the speaking rate of words spread over secs of audio.
// It is 0 when secs is not positive.
func WordsPerMinute(words int, secs float64) float64 {
	if secs <= 0 {
		return 0
	}
	return float64(words) * 60 / secs
}

// AudioDuration returns the length in seconds of a WAV file.
func AudioDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("batch: open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("batch: %s is not a valid WAV file", path)
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("batch: read WAV duration: %w", err)
	}
	return d.Seconds(), nil
}
