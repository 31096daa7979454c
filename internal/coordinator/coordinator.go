// Package coordinator garantiza que, de varias requests del mismo propósito,
// solo el resultado de la última emitida se aplique.
package coordinator

import (
	"context"
	"sync"
)

// Coordinator mantiene como mucho una request en vuelo. Emitir una nueva
// cancela la anterior; un resultado solo se aplica si su época sigue siendo
// la actual.
type Coordinator[T any] struct {
	mu     sync.Mutex
	epoch  uint64
	cancel context.CancelFunc
}

func New[T any]() *Coordinator[T] {
	return &Coordinator[T]{}
}

// begin cancela la request anterior y abre una época nueva.
func (c *Coordinator[T]) begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.epoch++
	c.cancel = cancel
	return ctx, c.epoch
}

// finish libera el contexto y reporta si epoch sigue siendo la actual.
func (c *Coordinator[T]) finish(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := epoch == c.epoch
	if current && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return current
}

// Run ejecuta fn de forma síncrona. applied es false si mientras tanto se
// emitió otra request o se llamó a Cancel; en ese caso value y err deben
// descartarse.
func (c *Coordinator[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (value T, applied bool, err error) {
	reqCtx, epoch := c.begin(ctx)
	value, err = fn(reqCtx)
	if !c.finish(epoch) {
		var zero T
		return zero, false, nil
	}
	return value, true, err
}

// Go ejecuta fn en una goroutine. Solo si el resultado es el vigente se llama
// a onSuccess u onError. El canal devuelto se cierra al terminar.
func (c *Coordinator[T]) Go(ctx context.Context, fn func(context.Context) (T, error), onSuccess func(T), onError func(error)) <-chan struct{} {
	reqCtx, epoch := c.begin(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		value, err := fn(reqCtx)
		if !c.finish(epoch) {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(value)
		}
	}()
	return done
}

// Cancel aborta la request en vuelo e invalida su época.
func (c *Coordinator[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
}
