package git

import (
	"context"
	"errors"
	"time"

	"github.com/coreforge/gitcore/internal/engine"
	gittrace "github.com/coreforge/gitcore/utils/trace"
)

// FetchAsync starts a fetch the same way FetchContext does, but never
// blocks the calling goroutine: the connect/negotiate/download-pack/
// update-tips sequence runs to completion on a background goroutine
// behind a single continuation frame, and this call (and every
// subsequent Perform) returns engine.StatusAgain until that goroutine
// finishes. This is the cooperative mode spec §4.4 describes: the
// pipeline itself is not decomposed into per-stage suspension points
// (the teacher has no async transport primitives to decompose it
// around), but the caller is never blocked waiting on the network, and
// Busy/Perform/Stop behave exactly as spec'd for a Remote mid-operation.
//
// Only one cooperative operation may be in flight on a Remote at a time;
// a second FetchAsync/PushAsync call while one is pending returns
// ErrBusy, matching the busy/idle invariant of §3. A synchronous Fetch or
// Push installs no continuation frame and is not seen by this check.
func (r *Remote) FetchAsync(ctx context.Context, o *FetchOptions) (engine.Status, error) {
	return r.startAsync(ctx, "fetch", func(c context.Context) error {
		return r.FetchContext(c, o)
	})
}

// PushAsync is PushContext's cooperative counterpart; see FetchAsync.
func (r *Remote) PushAsync(ctx context.Context, o *PushOptions) (engine.Status, error) {
	return r.startAsync(ctx, "push", func(c context.Context) error {
		return r.PushContext(c, o)
	})
}

// Busy reports whether a cooperative operation started by FetchAsync or
// PushAsync is still suspended awaiting Perform, i.e. whether the
// Remote's continuation stack is non-empty (spec §3 invariant 1).
func (r *Remote) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stack != nil && r.stack.Len() > 0
}

// Perform drives the next continuation frame of a cooperative operation
// started by FetchAsync/PushAsync, mirroring spec §4.4's public perform
// entry point: dispatching against an idle Remote returns ErrIdle rather
// than the engine's own ErrStackEmpty, matching "not-found from dispatch
// is translated by perform into invalid - remote is idle".
func (r *Remote) Perform(events engine.EventMask) (engine.Status, error) {
	r.mu.Lock()
	stack := r.stack
	r.mu.Unlock()

	if stack == nil || stack.Len() == 0 {
		return engine.StatusError, ErrIdle
	}

	status, err := stack.Dispatch(events)

	r.mu.Lock()
	if status != engine.StatusAgain {
		r.stack = nil
		r.sink = nil
		r.cancel = nil
	}
	r.mu.Unlock()

	if errors.Is(err, engine.ErrStackEmpty) {
		return engine.StatusError, ErrIdle
	}
	return status, err
}

// Await blocks on the ReadinessSink installed by the most recent
// FetchAsync/PushAsync call and returns the event mask to feed back into
// Perform. Combined in a loop, Perform+Await realize spec §4.4's
// synchronous driver built on top of the cooperative primitives: a
// caller that never wants to deal with events directly can just loop
// `status, err := r.Perform(events); events, _ = r.Await(budget)` until
// status is no longer StatusAgain.
func (r *Remote) Await(budget time.Duration) (engine.EventMask, error) {
	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()

	if sink == nil {
		return 0, ErrIdle
	}
	return sink.Await(budget)
}

// Stop cancels a cooperative operation in progress by canceling the
// context FetchAsync/PushAsync derived internally, the Go-native
// analogue of spec §4.4's "asks the active transport to cancel (sets a
// flag the transport observes on its next syscall)". Stop does not
// itself discard the continuation stack; the in-flight goroutine's
// transport call observes ctx.Done() and returns an error, which
// Perform then surfaces through normal error unwinding, per spec.
func (r *Remote) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// startAsync installs a single continuation frame that polls a
// goroutine running work to completion, and dispatches it once to
// produce the caller's first Status.
func (r *Remote) startAsync(ctx context.Context, label string, work func(context.Context) error) (engine.Status, error) {
	r.mu.Lock()
	if r.stack != nil && r.stack.Len() > 0 {
		r.mu.Unlock()
		return engine.StatusError, ErrBusy
	}

	cctx, cancel := context.WithCancel(ctx)
	stack := engine.NewStack()
	r.stack = stack
	r.cancel = cancel
	r.mu.Unlock()

	done := make(chan struct{})
	var result error
	go func() {
		defer close(done)
		result = work(cctx)
	}()

	// frame re-pushes itself onto the stack on every StatusAgain, per
	// the Stack.Dispatch contract: Dispatch pops the top frame before
	// invoking it, so a frame that wants to stay installed (because the
	// goroutine it is polling hasn't finished yet) must push its own
	// re-entry closure back on before returning.
	var frame engine.Frame
	frame = func(events engine.EventMask) (engine.Status, error) {
		select {
		case <-done:
			if result != nil && !errors.Is(result, NoErrAlreadyUpToDate) {
				gittrace.Remote.Printf("%s: error: %v", label, result)
				return engine.StatusError, result
			}
			gittrace.Remote.Printf("%s: ok", label)
			return engine.StatusOK, nil
		default:
			gittrace.Remote.Printf("%s: again", label)
			if err := stack.Push(frame); err != nil {
				return engine.StatusError, err
			}
			return engine.StatusAgain, nil
		}
	}

	if err := stack.Push(frame); err != nil {
		r.mu.Lock()
		r.stack = nil
		r.cancel = nil
		r.mu.Unlock()
		cancel()
		return engine.StatusError, err
	}

	r.mu.Lock()
	r.sink = engine.ChannelSink{Ready: done, Event: engine.EventRead}
	r.mu.Unlock()

	return r.Perform(0)
}
