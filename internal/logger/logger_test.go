package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testData := map[string]struct {
		name     string
		expected zerolog.Level
	}{
		"debug":   {"debug", zerolog.DebugLevel},
		"info":    {"info", zerolog.InfoLevel},
		"warn":    {"warn", zerolog.WarnLevel},
		"warning": {"WARNING", zerolog.WarnLevel},
		"error":   {"error", zerolog.ErrorLevel},
		"unknown": {"verbose", zerolog.InfoLevel},
		"empty":   {"", zerolog.InfoLevel},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, ParseLevel(td.name))
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Out: &buf})

	log.Info().Msg("hidden message")
	log.Warn().Str("run_id", "abc").Msg("visible message")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, `"run_id":"abc"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Pretty: true, Out: &buf})

	log.Debug().Msg("pretty message")

	out := buf.String()
	assert.Contains(t, out, "pretty message")
	assert.NotContains(t, out, `"message"`)
}
