// Package metrics exports WER results in the Prometheus text format so a
// node_exporter textfile collector can pick them up.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chaz8081/gostt-wer/internal/batch"
	"github.com/chaz8081/gostt-wer/internal/wer"
)

// Exporter owns a private registry so repeated runs in one process do not
// collide with the default one.
type Exporter struct {
	reg *prometheus.Registry

	pairWER      *prometheus.GaugeVec
	pairDistance *prometheus.GaugeVec
	pairRefWords *prometheus.GaugeVec
	pairEdits    *prometheus.GaugeVec
	werHist      prometheus.Histogram
	corpusWER    prometheus.Gauge
	failed       prometheus.Counter
	lastRun      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Exporter {
	e := &Exporter{
		reg: prometheus.NewRegistry(),
		pairWER: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wer_percent",
			Help: "Word error rate of a transcript pair, in percent",
		}, []string{"pair"}),
		pairDistance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wer_edit_distance",
			Help: "Word-level edit distance of a transcript pair",
		}, []string{"pair"}),
		pairRefWords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wer_reference_words",
			Help: "Reference length of a transcript pair, in words",
		}, []string{"pair"}),
		pairEdits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wer_edits",
			Help: "Edits of a transcript pair by kind",
		}, []string{"pair", "kind"}),
		werHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wer_pair_percent",
			Help:    "Distribution of per-pair word error rates",
			Buckets: []float64{1, 2.5, 5, 10, 15, 20, 30, 50, 75, 100},
		}),
		corpusWER: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wer_corpus_percent",
			Help: "Corpus word error rate of the last batch run, in percent",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wer_pairs_failed_total",
			Help: "Transcript pairs that could not be scored",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wer_last_run_timestamp_seconds",
			Help: "Unix time of the last scoring run",
		}),
	}
	e.reg.MustRegister(
		e.pairWER, e.pairDistance, e.pairRefWords, e.pairEdits,
		e.werHist, e.corpusWER, e.failed, e.lastRun,
	)
	return e
}

// Registry exposes the underlying gatherer.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// ObservePair records one scored pair.
func (e *Exporter) ObservePair(id string, r wer.Result) {
	e.pairWER.WithLabelValues(id).Set(r.WER)
	e.pairDistance.WithLabelValues(id).Set(float64(r.Distance))
	e.pairRefWords.WithLabelValues(id).Set(float64(r.RefWords))
	e.pairEdits.WithLabelValues(id, "substitution").Set(float64(r.Substitutions))
	e.pairEdits.WithLabelValues(id, "insertion").Set(float64(r.Insertions))
	e.pairEdits.WithLabelValues(id, "deletion").Set(float64(r.Deletions))
	e.werHist.Observe(r.WER)
	e.lastRun.SetToCurrentTime()
}

// ObserveFailure counts a pair that could not be scored and drops any
// values left over from an earlier score of the same pair.
func (e *Exporter) ObserveFailure(id string) {
	e.failed.Inc()
	e.pairWER.DeleteLabelValues(id)
	e.pairDistance.DeleteLabelValues(id)
	e.pairRefWords.DeleteLabelValues(id)
	e.pairEdits.DeletePartialMatch(prometheus.Labels{"pair": id})
	e.lastRun.SetToCurrentTime()
}

// ObserveReport records every item of a batch run and its corpus rate.
func (e *Exporter) ObserveReport(r *batch.Report) {
	for _, it := range r.Items {
		if it.Result == nil {
			e.ObserveFailure(it.ID)
			continue
		}
		e.ObservePair(it.ID, *it.Result)
	}
	e.corpusWER.Set(r.CorpusWER)
	e.lastRun.SetToCurrentTime()
}

// WriteTextfile atomically writes the current values to path.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.reg); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
