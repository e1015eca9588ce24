package ai

import "errors"

var (
	// ErrRateLimited maps a gateway 429. The caller should back off and may
	// resubmit the same turn.
	ErrRateLimited = errors.New("ai gateway rate limited")

	// ErrQuotaExhausted maps a gateway 402. Not recoverable without a billing
	// action on the gateway account.
	ErrQuotaExhausted = errors.New("ai gateway quota exhausted")

	// ErrStreamInterrupted reports a stream that dropped before the [DONE]
	// sentinel arrived.
	ErrStreamInterrupted = errors.New("ai stream interrupted")
)
