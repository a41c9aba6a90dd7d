package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies engine failures so callers can map them to user-facing
// messages or transport status codes.
type Kind int

const (
	// KindNotFound means a referenced bank account, bank transaction or book
	// transaction does not exist.
	KindNotFound Kind = iota + 1
	// KindOwnerOnly means the caller does not own the referenced resource.
	KindOwnerOnly
	// KindValidation means malformed input; Fields carries field → message.
	KindValidation
	// KindReconciled means a mutation was attempted on a transaction that is
	// already matched/reconciled.
	KindReconciled
	// KindAlreadyConfirmed / KindAlreadyRejected mean a state transition was
	// attempted from a terminal reconciliation status.
	KindAlreadyConfirmed
	KindAlreadyRejected
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindOwnerOnly:
		return "resource_owner_only"
	case KindValidation:
		return "validation"
	case KindReconciled:
		return "transaction_reconciled"
	case KindAlreadyConfirmed:
		return "already_confirmed"
	case KindAlreadyRejected:
		return "already_rejected"
	}
	return "unknown"
}

// FieldErrors maps field names to validation messages.
type FieldErrors map[string]string

func (f FieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// err returns a validation error covering the collected fields, or nil when
// nothing was recorded.
func (f FieldErrors) err(op string) error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Op: op, Fields: f}
}

// Error is the structured error returned by every engine operation.
type Error struct {
	Kind   Kind
	Op     string
	Field  string
	Msg    string
	Fields FieldErrors
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("ledger: ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not an engine error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsOwnerOnly(err error) bool        { return KindOf(err) == KindOwnerOnly }
func IsValidation(err error) bool       { return KindOf(err) == KindValidation }
func IsReconciled(err error) bool       { return KindOf(err) == KindReconciled }
func IsAlreadyConfirmed(err error) bool { return KindOf(err) == KindAlreadyConfirmed }
func IsAlreadyRejected(err error) bool  { return KindOf(err) == KindAlreadyRejected }

func errNotFound(op, field, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Field: field, Msg: msg}
}

func errOwnerOnly(op, field string) error {
	return &Error{Kind: KindOwnerOnly, Op: op, Field: field, Msg: "caller does not own the referenced resource"}
}

func errValidation(op, field, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Msg: msg}
}

func errReconciled(op, field string) error {
	return &Error{Kind: KindReconciled, Op: op, Field: field, Msg: "transaction is reconciled and cannot be modified"}
}
