// Package orchestrator drives one extraction request against a document context,
// recovering at most once from a missing receiver.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursexport/internal/logger"
	"coursexport/internal/protocol"
)

// DefaultReloadTimeout bounds the wait for a reloaded page.
const DefaultReloadTimeout = 15 * time.Second

// Target is the document context a request is sent to.
type Target interface {
	SendMessage(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Reload(ctx context.Context) error
	WaitComplete(ctx context.Context) error
}

// Injector is implemented by targets that can register the content script in place.
type Injector interface {
	InjectScript(ctx context.Context) error
}

// ReportedError is a failure answered by the target itself ({ok:false}).
type ReportedError struct {
	Message string
}

func (e *ReportedError) Error() string {
	return e.Message
}

// TransportError is a request or recovery step that could not reach the target.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a reloaded page does not complete in time.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("page did not finish loading within %s; reload the page manually and try again", e.Timeout)
}

// Options configures an Orchestrator.
type Options struct {
	ReloadTimeout time.Duration
	// DisableInjection forces the reload path even when the target is an Injector.
	DisableInjection bool
	OnTransition     func(from, to State)
}

// Orchestrator runs request invocations. It holds no per-invocation state and may
// be reused.
type Orchestrator struct {
	opts Options
	log  *logger.Logger
}

// New creates an orchestrator.
func New(opts Options, log *logger.Logger) *Orchestrator {
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	return &Orchestrator{opts: opts, log: logger.OrDiscard(log)}
}

// invocation is the state of one Request call.
type invocation struct {
	o         *Orchestrator
	target    Target
	injector  Injector
	canInject bool
	state     State
	result    *protocol.ExtractResult
	err       error
}

// Request asks target for the course data. A missing receiver is recovered once,
// by injection when available and otherwise by a bounded reload, followed by a
// single retry.
func (o *Orchestrator) Request(ctx context.Context, target Target) (*protocol.ExtractResult, error) {
	inv := &invocation{o: o, target: target, state: Idle}

	if inj, ok := target.(Injector); ok && !o.opts.DisableInjection {
		inv.injector = inj
		inv.canInject = true
	}

	inv.fire(Start)

	for !inv.state.Terminal() {
		switch inv.state {
		case Requesting, Retrying:
			inv.fire(inv.send(ctx))
		case RecoveringViaInjection:
			inv.fire(inv.inject(ctx))
		case RecoveringViaReload:
			inv.fire(inv.reload(ctx))
		default:
			inv.fire(RecoveryFailed)
		}
	}

	if inv.state == Success {
		return inv.result, nil
	}

	if inv.err == nil {
		inv.err = errors.New("request failed")
	}

	return nil, inv.err
}

func (inv *invocation) fire(e Event) {
	from := inv.state
	inv.state = Transition(from, e, inv.canInject)

	inv.o.log.Debug("request transition", "from", from, "event", e, "to", inv.state)

	if inv.o.opts.OnTransition != nil {
		inv.o.opts.OnTransition(from, inv.state)
	}
}

func (inv *invocation) send(ctx context.Context) Event {
	resp, err := inv.target.SendMessage(ctx, protocol.ExtractRequest())
	if errors.Is(err, protocol.ErrNoReceiver) {
		inv.err = &TransportError{Op: "send", Err: err}

		return NoReceiver
	}

	if err != nil {
		inv.err = &TransportError{Op: "send", Err: err}

		return TransportFailed
	}

	result, err := resp.Result()
	if err != nil {
		inv.err = &ReportedError{Message: err.Error()}

		return ReportedFailure
	}

	inv.result = result

	return Succeeded
}

func (inv *invocation) inject(ctx context.Context) Event {
	inv.o.log.Info("no receiver in page, injecting content script")

	if err := inv.injector.InjectScript(ctx); err != nil {
		inv.err = &TransportError{Op: "inject", Err: err}

		return RecoveryFailed
	}

	return Recovered
}

func (inv *invocation) reload(ctx context.Context) Event {
	timeout := inv.o.opts.ReloadTimeout

	inv.o.log.Info("no receiver in page, reloading", "timeout", timeout)

	if err := inv.target.Reload(ctx); err != nil {
		inv.err = &TransportError{Op: "reload", Err: err}

		return RecoveryFailed
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := inv.target.WaitComplete(waitCtx)

	switch {
	case err == nil:
		return Recovered
	case ctx.Err() != nil:
		inv.err = ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		inv.err = &TimeoutError{Timeout: timeout}
	default:
		inv.err = &TransportError{Op: "reload", Err: err}
	}

	return RecoveryFailed
}
