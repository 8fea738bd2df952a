package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull se reporta a OnFailure cuando un envío se descarta sin correr.
var ErrQueueFull = fmt.Errorf("%w: dispatcher queue full", ErrSendFailed)

const (
	DefaultWorkers     = 4
	DefaultSendTimeout = 10 * time.Second
	DefaultQueueSize   = 256
)

// DispatcherConfig configura el pool de envíos best-effort.
type DispatcherConfig struct {
	Workers   int
	Timeout   time.Duration
	QueueSize int
	// OnFailure se invoca por cada job que termina con error (métricas).
	OnFailure func(job string, err error)
}

type dispatchJob struct {
	ctx  context.Context
	name string
	fn   func(context.Context) error
}

// Dispatcher ejecuta envíos best-effort fuera del request: un pool acotado
// de workers, timeout por envío y un contexto que sobrevive a la cancelación
// del request pero conserva sus valores (logger, request id).
type Dispatcher struct {
	g         *errgroup.Group
	queue     chan dispatchJob
	timeout   time.Duration
	onFailure func(string, error)

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSendTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		g:         &errgroup.Group{},
		queue:     make(chan dispatchJob, cfg.QueueSize),
		timeout:   cfg.Timeout,
		onFailure: cfg.OnFailure,
	}
	d.g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		d.g.Go(d.worker)
	}
	return d
}

// Submit encola fn sin bloquear. Devuelve false si el dispatcher está
// cerrado o la cola está llena; en ese caso el envío se descarta.
func (d *Dispatcher) Submit(ctx context.Context, name string, fn func(context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	log := logger.From(ctx).With(logger.Component("email.dispatcher"), logger.String("job", name))
	if d.closed {
		log.Warn("dispatcher closed, notification dropped")
		return false
	}

	select {
	case d.queue <- dispatchJob{ctx: context.WithoutCancel(ctx), name: name, fn: fn}:
		return true
	default:
		log.Warn("dispatcher queue full, notification dropped")
		if d.onFailure != nil {
			d.onFailure(name, ErrQueueFull)
		}
		return false
	}
}

func (d *Dispatcher) worker() error {
	for j := range d.queue {
		d.run(j)
	}
	return nil
}

func (d *Dispatcher) run(j dispatchJob) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()

	log := logger.From(ctx).With(logger.Component("email.dispatcher"), logger.String("job", j.name))
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.fn(ctx)
	}()
	if err == nil {
		return
	}
	diag := DiagnoseSMTP(err)
	log.Warn("best-effort notification failed",
		logger.Err(err),
		logger.String("smtp_diag", diag.Code),
		logger.Bool("temporary", diag.Temporary),
	)
	if d.onFailure != nil {
		d.onFailure(j.name, err)
	}
}

// Close deja de aceptar jobs y espera a que terminen los encolados.
// Si ctx vence antes, devuelve ctx.Err() y los workers siguen drenando.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
