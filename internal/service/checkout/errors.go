package checkout

import (
	"errors"
	"fmt"
)

// Stage is a state of the checkout completion flow.
type Stage string

const (
	StageReceived     Stage = "RECEIVED"
	StageVerified     Stage = "VERIFIED"
	StageResolved     Stage = "RESOLVED"
	StageMaterialized Stage = "MATERIALIZED"
	StageReconciled   Stage = "RECONCILED"
	StageAcknowledged Stage = "ACKNOWLEDGED"
	StageRejected     Stage = "REJECTED"
)

// Kind classifies why a webhook was rejected.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindTransient      Kind = "transient"
)

var (
	ErrMissingUserID = errors.New("session metadata has no userId")
	ErrMissingCartID = errors.New("session metadata has no cartId")
	ErrInvalidCartID = errors.New("session cartId is not a UUID")
	ErrInvalidAmount = errors.New("session amounts are inconsistent")
	ErrNoBookItems   = errors.New("session contains no book line items")
	ErrCartNotFound  = errors.New("cart not found")
	ErrCartOwnership = errors.New("cart belongs to another user")
	// ErrReferenceCollision means every generated reference code was taken.
	ErrReferenceCollision = errors.New("could not allocate a unique reference code")
)

// Error is a rejected webhook. Stage is the last state the flow reached.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("checkout rejected after %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func reject(stage Stage, kind Kind, err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Stage: stage, Kind: kind, Err: err}
}

// KindOf reports the kind of a checkout error, or KindTransient for anything else.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}
