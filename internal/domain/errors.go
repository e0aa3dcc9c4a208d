package domain

import "errors"

var (
	// ErrGenerationFailure marks a failed or timed-out model call. Fatal to a
	// turn on the text path, silently degraded on the audio path.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrDeviceUnavailable means the speech capability is missing entirely.
	ErrDeviceUnavailable = errors.New("speech device unavailable")

	// ErrDeliveryConfig means escalation credentials are absent. A
	// configuration error, not a delivery error.
	ErrDeliveryConfig = errors.New("delivery credentials missing")

	// ErrDeliveryFailure means an escalation send was attempted and rejected.
	ErrDeliveryFailure = errors.New("delivery failed")

	// ErrPersistenceFailure wraps snapshot store read/write errors. Logged and
	// ignored; the in-memory state stays authoritative.
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrChatNotFound = errors.New("chat not found")

	// ErrTurnInFlight rejects a new turn while the previous one for the same
	// chat is still awaiting its text generation.
	ErrTurnInFlight = errors.New("a turn is already in flight for this chat")
)
