package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestZapWrapper_FieldsAreOrderedAndErrorsNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapAdapter(zap.New(core))

	l.Warn("unknown token", map[string]interface{}{
		"token": "cobol",
		"field": "skills",
		"cause": errors.New("not in vocabulary"),
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].Context
	assert.Equal(t, "cause", ctx[0].Key)
	assert.Equal(t, "field", ctx[1].Key)
	assert.Equal(t, "token", ctx[2].Key)
	assert.Equal(t, "not in vocabulary", entries[0].ContextMap()["cause"])
}

func TestForComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := ForComponent(NewZapAdapter(zap.New(core)), "feature-builder")

	l.Info("built vector", nil)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "feature-builder", entries[0].ContextMap()["component"])
}

func TestForComponent_NilLogger(t *testing.T) {
	l := ForComponent(nil, "assembler")
	assert.NotNil(t, l)
	l.Info("does not panic", nil)
}

func TestNew_FormatSelection(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console"))
	assert.NotNil(t, NewStructured("info", "json", "stderr"))
}
