package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	m.ObserveBuild("success", 3*time.Millisecond)
	m.ObserveBuild("partial", 5*time.Millisecond)
	m.ObservePhase("generate", time.Millisecond)
	m.SetTree(4, 6)
	m.AddArtifacts(6)
	m.NodeError("E111")
	m.NodeError("")
	m.SetDuplicates(1)
	m.SetReloadClients(2)

	families := gather(t, reg)

	builds := families["densky_builds_total"]
	if builds == nil || len(builds.GetMetric()) != 2 {
		t.Fatalf("densky_builds_total = %v", builds)
	}
	if got := families["densky_build_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("build duration samples = %d, want 2", got)
	}
	if got := families["densky_routes_discovered"].GetMetric()[0].GetGauge().GetValue(); got != 4 {
		t.Errorf("routes_discovered = %v, want 4", got)
	}
	if got := families["densky_tree_nodes"].GetMetric()[0].GetGauge().GetValue(); got != 6 {
		t.Errorf("tree_nodes = %v, want 6", got)
	}
	if got := families["densky_artifacts_written_total"].GetMetric()[0].GetCounter().GetValue(); got != 6 {
		t.Errorf("artifacts_written_total = %v, want 6", got)
	}

	codes := map[string]bool{}
	for _, metric := range families["densky_node_errors_total"].GetMetric() {
		for _, l := range metric.GetLabel() {
			codes[l.GetValue()] = true
		}
	}
	if !codes["E111"] || !codes["unknown"] {
		t.Errorf("node error codes = %v", codes)
	}
	if got := families["densky_reload_clients"].GetMetric()[0].GetGauge().GetValue(); got != 2 {
		t.Errorf("reload_clients = %v, want 2", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("site"), WithSubsystem("compiler"))
	m.SetDuplicates(3)

	if _, ok := gather(t, reg)["site_compiler_duplicate_routes"]; !ok {
		t.Error("namespace and subsystem not applied")
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveBuild("success", time.Second)
	m.ObservePhase("scan", time.Second)
	m.SetTree(1, 1)
	m.AddArtifacts(1)
	m.NodeError("E111")
	m.SetDuplicates(1)
	m.SetReloadClients(1)
}

func TestStartPhase(t *testing.T) {
	ctx, span := StartPhase(context.Background(), "scan")
	if span == nil {
		t.Fatal("StartPhase returned a nil span")
	}
	if ctx == nil {
		t.Fatal("StartPhase returned a nil context")
	}
	EndSpan(span, nil)

	_, span = StartPhase(ctx, "generate")
	EndSpan(span, errors.New("boom"))
}
