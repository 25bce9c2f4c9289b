// Package metrics collects per-run job metrics on a private registry and writes them
// in the node_exporter textfile format when the run ends
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/services/postprocess/domain"
)

const namespace = "hh4b_postprocess"

// Job is a domain.Recorder backed by its own prometheus registry
type Job struct {
	reg *prometheus.Registry

	years         *prometheus.CounterVec
	artifactBytes *prometheus.GaugeVec
	yearDuration  *prometheus.GaugeVec
	cutflow       *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
}

var _ domain.Recorder = (*Job)(nil)

// NewJob registers the job collectors on a fresh registry
func NewJob() *Job {
	j := &Job{
		reg: prometheus.NewRegistry(),
		years: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "years_total",
			Help:      "Years processed, by outcome",
		}, []string{"status"}),
		artifactBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of each artifact written",
		}, []string{"year", "kind"}),
		yearDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "year_duration_seconds",
			Help:      "Wall time spent on one year, collaborator call included",
		}, []string{"year"}),
		cutflow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cutflow_events",
			Help:      "Weighted events surviving each selection stage",
		}, []string{"year", "stage"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_year_success_timestamp_seconds",
			Help:      "Unix time the last year finished successfully",
		}),
	}
	j.reg.MustRegister(j.years, j.artifactBytes, j.yearDuration, j.cutflow, j.lastSuccess)

	// both outcomes are always exported, even at zero
	j.years.WithLabelValues("ok")
	j.years.WithLabelValues("failed")
	return j
}

// YearDone records a completed year
func (j *Job) YearDone(res domain.YearResult, cf domain.Cutflow) {
	j.years.WithLabelValues("ok").Inc()
	j.artifactBytes.WithLabelValues(res.Year, res.Events.Kind).Set(float64(res.Events.Bytes))
	j.artifactBytes.WithLabelValues(res.Year, res.Cutflow.Kind).Set(float64(res.Cutflow.Bytes))
	j.yearDuration.WithLabelValues(res.Year).Set(res.Duration.Seconds())
	for _, st := range cf.Stages {
		j.cutflow.WithLabelValues(res.Year, st.Name).Set(st.Events)
	}
	j.lastSuccess.SetToCurrentTime()
}

// YearFailed records a year that aborted the run
func (j *Job) YearFailed(string) {
	j.years.WithLabelValues("failed").Inc()
}

// WriteFile writes every collected metric to path atomically (temp file then rename)
func (j *Job) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, j.reg); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "write metrics file %s", path)
	}
	return nil
}
