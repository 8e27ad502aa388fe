package eventadmin

import "errors"

// Sentinel errors returned across the façade, dispatch engine, and hand-off
// channel. Handler-raised errors are never wrapped in these; they are logged
// and cause blacklisting (see HandlerTask.Run), never surfaced here.
var (
	// ErrShutdown is returned by PostEvent/SendEvent once Stop has been called.
	ErrShutdown = errors.New("eventadmin: bus is stopped")

	// ErrInterrupted is returned by a blocking wait (channel Take/Poll, a
	// pool worker's idle wait) that observed interruption.
	ErrInterrupted = errors.New("eventadmin: interrupted")

	// ErrInvalidArgument is returned for a nil runnable, a malformed topic
	// mask, or a malformed filter string.
	ErrInvalidArgument = errors.New("eventadmin: invalid argument")

	// ErrBrokenBarrier is raised internally when a rendezvous party exits
	// abnormally before both parties meet. Never surfaces to a producer.
	ErrBrokenBarrier = errors.New("eventadmin: rendezvous broken")

	// ErrSubmissionAborted is returned by the pool's Abort block policy
	// when the pool is saturated and shutdown has not been requested.
	ErrSubmissionAborted = errors.New("eventadmin: task submission aborted, pool saturated")

	// ErrAwaitWithoutShutdown names the condition of awaiting termination
	// when no shutdown has been requested on the executor. Pool's
	// AwaitTermination reports only a bool and does not return it.
	ErrAwaitWithoutShutdown = errors.New("eventadmin: await termination called before shutdown")

	// ErrNestedSendLimitExceeded is returned when a handler's re-entrant
	// SendEvent chain exceeds the configured nesting depth (spec §9,
	// "Cyclic handler graphs").
	ErrNestedSendLimitExceeded = errors.New("eventadmin: nested synchronous send depth exceeded")
)
