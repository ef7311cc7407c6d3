package models

import (
	"errors"
)

// Domain error taxonomy. Repositories and the state machine return these
// sentinels (wrapped with context); the usecase layer maps them to
// client-facing errors at the delivery boundary.
var (
	// ErrFlowNotFound: the flow id references no stored flow.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrFlowTerminal: the flow reached completed or abandoned and accepts
	// no further events.
	ErrFlowTerminal = errors.New("flow is in a terminal status")

	// ErrInvalidTransition: the (currentStatus, eventType) pair is not in
	// the transition table. The flow is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConcurrentModification: the stored flow version no longer matches
	// the version read at the start of the call. Retryable by the caller.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrPersistence: the persistence store rejected a read or write.
	// Retried by the caller with backoff, never by the state machine.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedIntakeData: the risk scorer received unparseable answers.
	// Scoring falls back to mild severity instead of failing the transition.
	ErrMalformedIntakeData = errors.New("malformed intake data")

	// ErrActiveFlowExists: a non-terminal flow already exists for the
	// (patientId, categoryId) pair.
	ErrActiveFlowExists = errors.New("active flow already exists for patient and category")

	// ErrProviderNotFound: the provider id references no directory entry.
	ErrProviderNotFound = errors.New("provider not found")
)
