// SPDX-License-Identifier: MPL-2.0

// Package metrics records the outcome of a single launcher run in a private
// Prometheus registry and writes it as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meerlaunch"

// Log upload outcomes.
const (
	UploadUploaded = "uploaded"
	UploadSkipped  = "skipped"
	UploadMissing  = "missing"
	UploadFailed   = "failed"
)

// Run holds the gauges of one launcher run.
type Run struct {
	reg *prometheus.Registry

	StorageGiB       prometheus.Gauge
	FilesCopied      prometheus.Gauge
	BytesCopied      prometheus.Gauge
	DanglingLinks    prometheus.Gauge
	PipelineDuration prometheus.Gauge
	PipelineExitCode prometheus.Gauge
	LastSuccess      prometheus.Gauge
	LogUpload        *prometheus.GaugeVec
}

// NewRun registers the run gauges in a fresh registry.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Run{
		reg: reg,
		StorageGiB: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "storage_provisioned_gib", Help: "Size of the shared volume requested for the run.",
		}),
		FilesCopied: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "workdir_files_copied", Help: "Files copied into the shared work directory.",
		}),
		BytesCopied: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "workdir_bytes_copied", Help: "Bytes copied into the shared work directory.",
		}),
		DanglingLinks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "workdir_dangling_links", Help: "Dangling symbolic links skipped during the copy.",
		}),
		PipelineDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pipeline_duration_seconds", Help: "Wall time of the Nextflow run.",
		}),
		PipelineExitCode: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pipeline_exit_code", Help: "Exit status of the Nextflow run.",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pipeline_last_success_timestamp_seconds", Help: "Unix time the pipeline last finished successfully.",
		}),
		LogUpload: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "log_upload", Help: "Outcome of the log upload, 1 for the observed result.",
		}, []string{"result"}),
	}
}

// Registry returns the run's registry.
func (r *Run) Registry() *prometheus.Registry { return r.reg }

// ObservePipeline records the runner's exit status and duration. A zero
// exit code also stamps LastSuccess with finishedAt.
func (r *Run) ObservePipeline(exitCode int, d time.Duration, finishedAt time.Time) {
	r.PipelineExitCode.Set(float64(exitCode))
	r.PipelineDuration.Set(d.Seconds())
	if exitCode == 0 {
		r.LastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// ObserveUpload marks result as the log upload outcome.
func (r *Run) ObserveUpload(result string) {
	for _, res := range []string{UploadUploaded, UploadSkipped, UploadMissing, UploadFailed} {
		v := 0.0
		if res == result {
			v = 1
		}
		r.LogUpload.WithLabelValues(res).Set(v)
	}
}

// WriteTextfile writes the registry to path in the Prometheus text format.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
