package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/EsotericMat/TheLonelyTraderDesk/orchestrate/config"
)

func TestDefaultGraphConfig(t *testing.T) {
	cfg := config.DefaultGraphConfig("desk")

	assert.Equal(t, "desk", cfg.Name)
	assert.Equal(t, "slog", cfg.Observer)
	assert.Equal(t, 100, cfg.MaxSteps)
	assert.Zero(t, cfg.StepTimeout)
	assert.Equal(t, "iterations", cfg.IterationField)
}

func TestGraphConfig_Merge(t *testing.T) {
	tests := []struct {
		name   string
		source config.GraphConfig
		want   config.GraphConfig
	}{
		{
			name:   "empty source keeps defaults",
			source: config.GraphConfig{},
			want:   config.DefaultGraphConfig("desk"),
		},
		{
			name: "non-zero fields override",
			source: config.GraphConfig{
				Observer:    "noop",
				MaxSteps:    12,
				StepTimeout: 30 * time.Second,
			},
			want: config.GraphConfig{
				Name:           "desk",
				Observer:       "noop",
				MaxSteps:       12,
				StepTimeout:    30 * time.Second,
				IterationField: "iterations",
			},
		},
		{
			name:   "negative max steps ignored",
			source: config.GraphConfig{MaxSteps: -1},
			want:   config.DefaultGraphConfig("desk"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultGraphConfig("desk")
			cfg.Merge(&tt.source)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestGraphConfig_Decoding(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var cfg config.GraphConfig
		require.NoError(t, json.Unmarshal([]byte(`{"name":"g","observer":"noop","max_steps":7}`), &cfg))
		assert.Equal(t, "g", cfg.Name)
		assert.Equal(t, "noop", cfg.Observer)
		assert.Equal(t, 7, cfg.MaxSteps)
	})

	t.Run("yaml", func(t *testing.T) {
		var cfg config.GraphConfig
		require.NoError(t, yaml.Unmarshal([]byte("name: g\nmax_steps: 9\nstep_timeout: 90s\n"), &cfg))
		assert.Equal(t, 9, cfg.MaxSteps)
		assert.Equal(t, 90*time.Second, cfg.StepTimeout)
	})
}
