package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance atomic.Pointer[zap.Logger]
)

// Init inicializa el logger del proceso. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	once.Do(func() {
		instance.Store(build(cfg))
	})
}

// L retorna el logger del proceso; si Init no fue llamado usa dev/info.
func L() *zap.Logger {
	if l := instance.Load(); l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info"})
	return instance.Load()
}

// Replace reemplaza el logger del proceso y devuelve una función que restaura
// el anterior. Pensado para tests.
func Replace(l *zap.Logger) (restore func()) {
	Init(Config{Env: "dev", Level: "info"})
	prev := instance.Swap(l)
	return func() { instance.Store(prev) }
}

// S retorna el SugaredLogger del proceso.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

func Named(name string) *zap.Logger {
	return L().Named(name)
}

func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushea cualquier buffer pendiente. Llamar con defer en main.
func Sync() error {
	if l := instance.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
