package instance

import (
	"io"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// MetricReporter is the narrow sink an Instance pushes execution-duration
// and queue-depth samples into. It accepts one prebuilt prometheus
// MetricFamily per sample, so a caller can wire an Instance to a full
// prometheus.Registry, a text-log sink, or nothing at all, without the core
// depending on any particular metrics backend.
type MetricReporter interface {
	Report(*dto.MetricFamily)
}

// SetMetricReporter installs an optional metric sink. The default, a nil
// reporter, disables metric reporting entirely; every report call becomes a
// no-op check.
func (i *Instance) SetMetricReporter(r MetricReporter) { i.metrics = r }

const (
	execDurationMetricName = "instance_exec_duration_seconds"
	queueDepthMetricName   = "instance_queue_depth"
)

func (i *Instance) reportExecDuration(d time.Duration) {
	if i.metrics == nil {
		return
	}
	value := d.Seconds()
	i.metrics.Report(gaugeFamily(execDurationMetricName, i.name, value))
}

func (i *Instance) reportQueueDepth(depth int) {
	if i.metrics == nil {
		return
	}
	i.metrics.Report(gaugeFamily(queueDepthMetricName, i.name, float64(depth)))
}

func gaugeFamily(name, instanceName string, value float64) *dto.MetricFamily {
	metricName := name
	metricType := dto.MetricType_GAUGE
	labelName := "instance"
	labelValue := instanceName
	gaugeValue := value
	return &dto.MetricFamily{
		Name: &metricName,
		Type: &metricType,
		Metric: []*dto.Metric{
			{
				Label: []*dto.LabelPair{
					{Name: &labelName, Value: &labelValue},
				},
				Gauge: &dto.Gauge{Value: &gaugeValue},
			},
		},
	}
}

// TextMetricReporter is a MetricReporter that encodes every reported family
// in the Prometheus text exposition format and writes it to w. It exists
// mainly so a caller without a prometheus.Registry handy (cmd/demo, tests)
// can still observe what an Instance reports.
type TextMetricReporter struct {
	w io.Writer
}

// NewTextMetricReporter wraps w as a MetricReporter.
func NewTextMetricReporter(w io.Writer) *TextMetricReporter {
	return &TextMetricReporter{w: w}
}

// Report implements MetricReporter.
func (r *TextMetricReporter) Report(family *dto.MetricFamily) {
	_, _ = expfmt.MetricFamilyToText(r.w, family)
}
