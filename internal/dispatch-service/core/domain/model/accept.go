package model

// AcceptOutcome is the arbiter's verdict on one accept attempt.
type AcceptOutcome string

const (
	// Accepted covers both a fresh win and an idempotent retry by the
	// driver who already holds the order.
	Accepted     AcceptOutcome = "accepted"
	AlreadyTaken AcceptOutcome = "already_taken"
	NotFound     AcceptOutcome = "not_found"
)
