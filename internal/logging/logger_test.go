// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestObservedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core).Named("pipeline").With(String("run_id", "r1"))

	log.Info("publication mined", Int("candidates", 3), Float64("confidence", 0.9), Err(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "publication mined", e.Message)
	assert.Equal(t, "pipeline", e.LoggerName)

	fields := e.ContextMap()
	assert.Equal(t, "r1", fields["run_id"])
	assert.Equal(t, int64(3), fields["candidates"])
	assert.Equal(t, 0.9, fields["confidence"])
	assert.Equal(t, "boom", fields["error"])
}

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miner.log")
	log, err := NewLogger(Config{Level: "debug", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Debug("hello", Bool("ok", true))
	require.NoError(t, log.Sync())

	assert.FileExists(t, path)
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.With(String("k", "v")).Named("x").Error("ignored")
	assert.NoError(t, log.Sync())
}

func TestErrNil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}
