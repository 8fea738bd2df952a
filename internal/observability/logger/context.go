package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From devuelve el logger del request o, si no hay, el del proceso.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L()
}

// WithFields agrega campos al logger del contexto y devuelve el contexto
// nuevo: todo lo que se loguee aguas abajo los lleva.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ToContext(ctx, From(ctx).With(fields...))
}
