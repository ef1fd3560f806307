// Package config defines the construction-time configuration for workflow
// graphs.
//
// GraphConfig is used only while building a graph and is then transformed into
// the graph's runtime fields. The Observer field is a name resolved through the
// observability registry so configuration can be loaded from YAML or JSON:
//
//	cfg := config.DefaultGraphConfig("trader-desk")
//	cfg.Merge(&config.GraphConfig{MaxSteps: 40, StepTimeout: 2 * time.Minute})
//	graph, err := state.NewGraph(cfg, schema)
//
// # Defaults
//
//	Observer:       "slog"
//	MaxSteps:       100
//	StepTimeout:    0 (no per-step deadline)
//	IterationField: "iterations"
package config
