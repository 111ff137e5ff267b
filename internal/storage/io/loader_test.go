package io

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/tasktrack/internal/model"
)

func TestConfigYAMLRepository_GetConfig(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		base   model.TrackerConfig
		expCfg model.TrackerConfig
		expErr bool
		errMsg string
	}{
		"A full config should load successfully": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`batch_size: 3
steps: 10
duration:
  min: 100ms
  max: 1s
failure_chance: 0.5
publish_interval: 250ms
`),
				},
			},
			path: "config.yaml",
			base: model.DefaultTrackerConfig(),
			expCfg: model.TrackerConfig{
				BatchSize:       3,
				Steps:           10,
				MinDuration:     100 * time.Millisecond,
				MaxDuration:     time.Second,
				FailureChance:   0.5,
				PublishInterval: 250 * time.Millisecond,
			},
		},

		"A partial config should use the base for missing settings": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`batch_size: 10
failure_chance: 0
`),
				},
			},
			path: "config.yaml",
			base: model.DefaultTrackerConfig(),
			expCfg: model.TrackerConfig{
				BatchSize:       10,
				Steps:           100,
				MinDuration:     30 * time.Second,
				MaxDuration:     120 * time.Second,
				FailureChance:   0,
				PublishInterval: 500 * time.Millisecond,
			},
		},

		"An empty config should return the base": {
			fs: fstest.MapFS{
				"empty.yaml": &fstest.MapFile{
					Data: []byte(`---
`),
				},
			},
			path:   "empty.yaml",
			base:   model.FastTrackerConfig(),
			expCfg: model.FastTrackerConfig(),
		},

		"Missing file should return error": {
			fs:     fstest.MapFS{},
			path:   "nonexistent.yaml",
			base:   model.DefaultTrackerConfig(),
			expErr: true,
			errMsg: "reading config file",
		},

		"Invalid YAML should return error": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`batch_size: [`),
				},
			},
			path:   "config.yaml",
			base:   model.DefaultTrackerConfig(),
			expErr: true,
			errMsg: "parsing YAML",
		},

		"Invalid duration should return error": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`duration:
  min: tomorrow
`),
				},
			},
			path:   "config.yaml",
			base:   model.DefaultTrackerConfig(),
			expErr: true,
			errMsg: "duration.min",
		},

		"An invalid resulting config should return error": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`duration:
  min: 10s
  max: 1s
`),
				},
			},
			path:   "config.yaml",
			base:   model.DefaultTrackerConfig(),
			expErr: true,
			errMsg: "invalid configuration",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo := NewConfigYAMLRepository(test.fs)
			cfg, err := repo.GetConfig(context.Background(), test.path, test.base)

			if test.expErr {
				require.Error(err)
				assert.Contains(err.Error(), test.errMsg)
				return
			}

			require.NoError(err)
			assert.Equal(test.expCfg, cfg)
		})
	}
}
