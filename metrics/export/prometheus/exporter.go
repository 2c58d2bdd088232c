package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	monitor "github.com/MrEthical07/goAuthMonitor"
	"github.com/MrEthical07/goAuthMonitor/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. [monitor.Monitor] implements it.
type Source interface {
	MetricsSnapshot() monitor.MetricsSnapshot
	EventsDropped() uint64
	State() monitor.State
}

// PrometheusExporter renders monitor metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source Source
}

// NewPrometheusExporter creates an exporter reading from m.
func NewPrometheusExporter(m *monitor.Monitor) *PrometheusExporter {
	return &PrometheusExporter{source: m}
}

func NewPrometheusExporterFromSource(source Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves the metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. A monitor built without metrics renders as an
// empty string.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}
	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 {
		return ""
	}

	var e exposition
	e.Grow(2048)

	for _, def := range internaldefs.CounterDefs {
		e.family(def.Name, def.Help, "counter")
		e.sample(def.Name, "", strconv.FormatUint(snapshot.Counters[def.ID], 10))
	}
	e.family(internaldefs.DroppedEventsName, internaldefs.DroppedEventsHelp, "counter")
	e.sample(internaldefs.DroppedEventsName, "", strconv.FormatUint(p.source.EventsDropped(), 10))

	current := p.source.State()
	e.family(internaldefs.StateName, internaldefs.StateHelp, "gauge")
	for _, st := range internaldefs.States {
		v := "0"
		if st == current {
			v = "1"
		}
		e.sample(internaldefs.StateName, label(internaldefs.StateLabel, st.String()), v)
	}

	if cumulative, sum, ok := internaldefs.RenewLatency(snapshot); ok {
		name := internaldefs.RenewLatencyName
		e.family(name, internaldefs.RenewLatencyHelp, "histogram")
		for i, le := range internaldefs.LatencyBounds {
			e.sample(name+"_bucket", label("le", le), strconv.FormatUint(cumulative[i], 10))
		}
		e.sample(name+"_sum", "", strconv.FormatFloat(sum.Seconds(), 'g', -1, 64))
		e.sample(name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	}

	return e.String()
}

// exposition accumulates text format lines.
type exposition struct {
	strings.Builder
}

func (e *exposition) family(name, help, typ string) {
	e.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	e.WriteString("# TYPE " + name + " " + typ + "\n")
}

func (e *exposition) sample(name, labels, value string) {
	e.WriteString(name)
	if labels != "" {
		e.WriteString("{" + labels + "}")
	}
	e.WriteString(" " + value + "\n")
}

func label(k, v string) string {
	return k + `="` + v + `"`
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
