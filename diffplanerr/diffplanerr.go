// Package diffplanerr defines the two error regimes the compiler uses:
// compile-time fatal errors (a malformed plan — returned, never
// recovered), and runtime invariant violations (a corrupted dataflow
// state — panicked, to be converted to worker failure by the runtime).
package diffplanerr

import (
	"errors"
	"fmt"
)

// Compile-time fatal error kinds (spec §7). Compare with errors.Is against
// these sentinels; CompileError.Unwrap exposes one of them.
var (
	ErrUnboundJoinTarget  = errors.New("unbound join target variable")
	ErrMissingAttribute   = errors.New("pattern references unknown attribute")
	ErrUnknownRule        = errors.New("name-expr references unknown rule")
	ErrUnknownArrangement = errors.New("name-expr references unknown arrangement")
	ErrJoinArityExceeded  = errors.New("attribute x attribute join over more than two target variables")
	ErrUnimplementedShape = errors.New("plan shape not implemented by this compiler")
)

// CompileError wraps one of the sentinels above with the plan-specific
// context (which attribute, which rule, which node) that made it fatal.
// The calling request is ill-typed; there is no recovery path, only
// propagation up the Implement call stack to the caller, who aborts.
type CompileError struct {
	Kind    error  // one of the Err* sentinels above
	Node    string // the Plan node kind that raised the error, e.g. "Join"
	Detail  string // human-readable specifics, e.g. the offending Aid or rule name
}

func (e *CompileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Node, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Node, e.Kind, e.Detail)
}

func (e *CompileError) Unwrap() error {
	return e.Kind
}

// Fatal constructs a *CompileError.
func Fatal(node string, kind error, detail string) *CompileError {
	return &CompileError{Kind: kind, Node: node, Detail: detail}
}

// InvariantKind enumerates runtime invariant violations (spec §7). These
// are panicked rather than returned: they indicate the dataflow has
// already diverged from what the algebra guarantees, and continuing to
// process is unsafe.
type InvariantKind int

const (
	CardinalityOneRetractionOfMissingKey InvariantKind = iota
	SourceSchemaMismatch
)

func (k InvariantKind) String() string {
	switch k {
	case CardinalityOneRetractionOfMissingKey:
		return "cardinality-one retraction of missing key"
	case SourceSchemaMismatch:
		return "source schema mismatch"
	default:
		return "unknown invariant violation"
	}
}

// InvariantViolation is the panic value raised when a runtime invariant is
// broken. The runtime is expected to recover it at a worker boundary and
// convert it to worker failure (spec §7 propagation note).
type InvariantViolation struct {
	Kind   InvariantKind
	Detail string
}

func (v InvariantViolation) Error() string {
	if v.Detail == "" {
		return v.Kind.String()
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// Raise panics with an InvariantViolation of the given kind and detail.
func Raise(kind InvariantKind, detail string) {
	panic(InvariantViolation{Kind: kind, Detail: detail})
}
