package engine

import (
	"context"
)

// Run starts the single-writer loop that executes submitted calls.
// Blocks until the context is cancelled or Stop is called.
//
// Must be called from exactly ONE goroutine. A failed call is reported to
// its submitter; the loop keeps going.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		if r, ok := e.queue.TryDequeue(); ok {
			e.serve(r)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.drain()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed, which
			// fires this case immediately.
			if e.queue.Len() == 0 && e.queueClosed() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run returns once it is empty.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Submit hands a call to the Run loop and waits for its result.
// Safe from any goroutine.
func (e *Engine) Submit(ctx context.Context, c Call) (Result, error) {
	r := &request{ctx: ctx, call: c, reply: make(chan response, 1)}
	if !e.queue.Enqueue(r) {
		return Result{}, &RuntimeError{Code: ErrCodeStopped, Message: "engine is not accepting calls", Op: c.Op}
	}

	select {
	case resp := <-r.reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (e *Engine) serve(r *request) {
	// A submitter that already gave up never sees the outcome; skip the call
	// rather than apply it behind its back.
	if err := r.ctx.Err(); err != nil {
		r.reply <- response{err: err}
		return
	}
	res, err := e.Execute(r.ctx, r.call)
	r.reply <- response{result: res, err: err}
}

// drain rejects everything still queued after shutdown.
func (e *Engine) drain() {
	for {
		r, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		r.reply <- response{err: &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped", Op: r.call.Op}}
	}
}

func (e *Engine) queueClosed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}
