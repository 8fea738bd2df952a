package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestFromFallsBackToProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("from background")
	L().Info("from process")
	assert.Equal(t, 2, logs.Len())
}

func TestToContextScopesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := ToContext(context.Background(), base.With(RequestID("rid-1")))
	From(ctx).Debug("scoped", UserID("u-1"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, "u-1", fields["user_id"])
}

func TestBuildAddsServiceFields(t *testing.T) {
	l := build(Config{Env: "prod", Level: "warn", ServiceName: "credgate", Version: "test"})
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestEmailFieldIsMasked(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("x", Email("Ana@Example.com"))
	assert.Equal(t, "a…@e….com", logs.All()[0].ContextMap()["email"])
}

func TestWithFieldsAccumulates(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ToContext(context.Background(), zap.New(core))
	ctx = WithFields(ctx, RequestID("rid-2"))
	ctx = WithFields(ctx, UserID("u-2"))
	From(ctx).Info("done")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "rid-2", fields["request_id"])
	assert.Equal(t, "u-2", fields["user_id"])
}
