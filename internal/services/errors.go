package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by the coordinators matches exactly
// one of these with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrTransactionFailure = errors.New("transaction failed")
)

var (
	ErrTeamNotFound       = newKindError(ErrNotFound, "team_not_found", "team not found")
	ErrMemberNotFound     = newKindError(ErrNotFound, "member_not_found", "member not found")
	ErrInvitationNotFound = newKindError(ErrNotFound, "invitation_not_found", "merge invitation not found")
	ErrUserNotFound       = newKindError(ErrNotFound, "user_not_found", "user not found")

	ErrNotTeamLeader = newKindError(ErrUnauthorized, "not_team_leader", "caller is not the team leader")
	ErrNotInvitee    = newKindError(ErrUnauthorized, "not_invitee", "member record belongs to another user")

	ErrAlreadyMember              = newKindError(ErrConflict, "already_member", "user is already a member of this team")
	ErrConflictingRegistration    = newKindError(ErrConflict, "conflicting_registration", "user is already registered for this event")
	ErrTeamFull                   = newKindError(ErrConflict, "team_full", "team is full")
	ErrCapacityExceeded           = newKindError(ErrConflict, "capacity_exceeded", "merged team would exceed capacity")
	ErrAlreadyResponded           = newKindError(ErrConflict, "already_responded", "invitation has already been responded to")
	ErrDuplicatePendingInvitation = newKindError(ErrConflict, "duplicate_pending_invitation", "a pending invitation already exists for these teams")
	ErrTeamLocked                 = newKindError(ErrConflict, "team_locked", "team is completed and locked")

	ErrInvalidFields     = newKindError(ErrValidation, "invalid_fields", "member fields are incomplete or invalid")
	ErrInvalidInvitation = newKindError(ErrValidation, "invalid_invitation", "invalid merge invitation")
	ErrInvalidAction     = newKindError(ErrValidation, "invalid_action", "action must be accept or reject")
	ErrInvalidTeam       = newKindError(ErrValidation, "invalid_team", "invalid team settings")
)

type kindError struct {
	kind error
	code string
	msg  string
}

func newKindError(kind error, code, msg string) *kindError {
	return &kindError{kind: kind, code: code, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Code() string { return e.code }

func (e *kindError) Is(target error) bool { return target == e.kind }

// FieldsError lists the member fields that are missing or hold characters
// that are not allowed.
type FieldsError struct {
	Missing []string
	Invalid []string
}

func (e *FieldsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s (%s)", ErrInvalidFields.msg, strings.Join(parts, "; "))
}

func (e *FieldsError) Code() string { return ErrInvalidFields.code }

func (e *FieldsError) Is(target error) bool {
	return target == ErrInvalidFields || target == ErrValidation
}

type coded interface {
	Code() string
}

// ErrorCode returns the machine-readable kind of err, "transaction_failure"
// for store failures, or "internal" for anything else.
func ErrorCode(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}
	if errors.Is(err, ErrTransactionFailure) {
		return "transaction_failure"
	}
	return "internal"
}

// classify passes domain errors through and wraps everything else as a
// transaction failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var c coded
	if errors.As(err, &c) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransactionFailure, err)
}
