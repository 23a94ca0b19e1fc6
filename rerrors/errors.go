// Package rerrors defines the error taxonomy shared across the
// recording/serialization engine (spec section 7). It is a separate,
// dependency-free package so every component package (constants,
// substitution, serialize, deferred, proxy, emit) can return or wrap
// these sentinels without creating an import cycle back into the
// package root.
package rerrors

import "errors"

// Sentinel errors, one per taxonomy row in spec section 7.
var (
	// ErrUnrecordableReturn: a recorder method field returns something
	// other than nothing or *runtimeval.Handle.
	ErrUnrecordableReturn = errors.New("recorder: return type cannot be proxied")

	// ErrCrossPhaseProxy: a runtime-phase handle was passed to a
	// static-init recorder.
	ErrCrossPhaseProxy = errors.New("recorder: runtime-phase value used in a static-init recorder")

	// ErrUnsupportedValue: no dispatch branch matched, or a value
	// violated a branch's own limits (oversized string, multi-bound
	// wildcard equivalent, no viable construction strategy).
	ErrUnsupportedValue = errors.New("recorder: unsupported value for recording")

	// ErrAmbiguousConstructor: more than one equally-eligible
	// constructor is registered for a recordable type.
	ErrAmbiguousConstructor = errors.New("recorder: ambiguous recordable constructor")

	// ErrMissingParameterNames: a constructor's parameter names could
	// not be extracted and the type is not covered by an explicit
	// extractor.
	ErrMissingParameterNames = errors.New("recorder: missing constructor parameter names")

	// ErrPropertyFieldInconsistency: a read-only field with a backing
	// value, or a field whose declared type cannot hold the recorded
	// value, under strict (non-relaxed) validation.
	ErrPropertyFieldInconsistency = errors.New("recorder: property/field inconsistency")

	// ErrUnusedConstructorParameter: a recordable constructor has
	// parameters left unmatched by any field after population.
	ErrUnusedConstructorParameter = errors.New("recorder: unused constructor parameter")

	// ErrLoaderAbsent: an injected parameter's type matches no
	// registered constant and no object loader can handle it.
	ErrLoaderAbsent = errors.New("recorder: no constant or loader for type")

	// ErrLateAllocation: an attempt to create a new deferred node after
	// emission has begun.
	ErrLateAllocation = errors.New("recorder: deferred node created after emission began")

	// ErrDirectProxyCall: a method other than String/GoString was
	// invoked directly on a runtimeval.Handle.
	ErrDirectProxyCall = errors.New("recorder: cannot invoke directly on a returned value")
)

// RecordError carries the offending method or object name alongside one
// of the sentinels above so build logs can identify the source, while
// still satisfying errors.Is against the sentinel via Unwrap.
type RecordError struct {
	Kind    error
	Subject string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return e.Kind.Error() + ": " + e.Subject
}

// Unwrap lets errors.Is/errors.As match the wrapped sentinel.
func (e *RecordError) Unwrap() error {
	return e.Kind
}

// Wrap builds a RecordError pairing kind with subject (a method
// descriptor, type name, or field name identifying the offending site).
func Wrap(kind error, subject string) *RecordError {
	return &RecordError{Kind: kind, Subject: subject}
}
