// Package telemetry holds the Prometheus metrics and OpenTelemetry spans
// of the build pipeline.
//
// Metrics are registered on the registry passed with WithRegistry, so
// tests and the dev server can each own one:
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Spans use the global tracer provider. Configure it in main before
// building:
//
//	otel.SetTracerProvider(tp)
package telemetry
