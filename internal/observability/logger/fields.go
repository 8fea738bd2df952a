package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/credgate/internal/util"
)

// Field es un alias para no importar zap en cada call site.
type Field = zap.Field

// =================================================================================
// CAMPOS - HTTP
// =================================================================================

func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

func Method(v string) zap.Field {
	return zap.String("method", v)
}

func Path(v string) zap.Field {
	return zap.String("path", v)
}

func Status(v int) zap.Field {
	return zap.Int("status", v)
}

func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// ErrorID es el id de correlación que también recibe el cliente.
func ErrorID(v string) zap.Field {
	return zap.String("error_id", v)
}

func ErrorCode(v string) zap.Field {
	return zap.String("error_code", v)
}

func RetryAfter(v time.Duration) zap.Field {
	return zap.Duration("retry_after", v)
}

// =================================================================================
// CAMPOS - NEGOCIO
// =================================================================================

func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Email loguea la dirección enmascarada.
func Email(v string) zap.Field {
	return zap.String("email", util.MaskEmail(v))
}

func Role(v string) zap.Field {
	return zap.String("role", v)
}

func TokenKind(v string) zap.Field {
	return zap.String("token_kind", v)
}

// =================================================================================
// CAMPOS - SISTEMA
// =================================================================================

func Component(v string) zap.Field {
	return zap.String("component", v)
}

func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (handler, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

// Stack agrega el stacktrace actual (panics recuperados).
func Stack() zap.Field {
	return zap.Stack("stack")
}

// =================================================================================
// CAMPOS - GENÉRICOS
// =================================================================================

func Key(v string) zap.Field {
	return zap.String("key", v)
}

func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

func String(key, v string) zap.Field {
	return zap.String(key, v)
}

func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

func Int64(key string, v int64) zap.Field {
	return zap.Int64(key, v)
}

func Duration(key string, v time.Duration) zap.Field {
	return zap.Duration(key, v)
}
