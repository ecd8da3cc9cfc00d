package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept", slog.String("user.id", "42"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "42", entry["user.id"])
	require.Contains(t, entry, "source")
}

func TestInstruments_NilSafe(t *testing.T) {
	var instruments *Instruments
	require.NotNil(t, instruments.Tracer("x"))
	require.NotNil(t, instruments.Meter("x"))
	require.NotNil(t, instruments.EffectiveLogger())
}

func TestInit_ReturnsShutdown(t *testing.T) {
	var buf bytes.Buffer
	instruments, shutdown, err := Init(context.Background(), Settings{
		ServiceName:  "users-api-test",
		OTLPEndpoint: "127.0.0.1:4318",
		OTLPInsecure: true,
		LogOutput:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, instruments.Logger)

	_, span := instruments.Tracer("test").Start(context.Background(), "noop")
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// export may fail against an absent collector; shutdown must still return
	_ = shutdown(ctx)
}
