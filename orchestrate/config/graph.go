package config

import "time"

// GraphConfig defines configuration for graph execution.
type GraphConfig struct {
	// Name identifies the graph in events and errors.
	Name string `json:"name" yaml:"name"`

	// Observer names a registered observer ("noop", "slog", ...).
	Observer string `json:"observer" yaml:"observer"`

	// MaxSteps bounds the total number of step invocations in one run. It is
	// a backstop for graphs whose loops are not otherwise bounded.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	// StepTimeout bounds each step invocation. Zero disables the deadline.
	StepTimeout time.Duration `json:"step_timeout" yaml:"step_timeout"`

	// IterationField is the integer schema field the executor advances each
	// time it enters the loop head.
	IterationField string `json:"iteration_field" yaml:"iteration_field"`
}

// DefaultGraphConfig returns the defaults for a named graph.
func DefaultGraphConfig(name string) GraphConfig {
	return GraphConfig{
		Name:           name,
		Observer:       "slog",
		MaxSteps:       100,
		IterationField: "iterations",
	}
}

// Merge overlays non-zero fields from source.
func (c *GraphConfig) Merge(source *GraphConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.MaxSteps > 0 {
		c.MaxSteps = source.MaxSteps
	}

	if source.StepTimeout > 0 {
		c.StepTimeout = source.StepTimeout
	}

	if source.IterationField != "" {
		c.IterationField = source.IterationField
	}
}
