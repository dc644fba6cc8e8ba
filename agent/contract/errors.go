package contract

import "errors"

var (
	// ErrToolServiceUnavailable: the tool-service connection is not
	// established. Reported to the user as a transient notice.
	ErrToolServiceUnavailable = errors.New("tool service unavailable")
	// ErrToolNotFound: the model requested an operation outside the catalog.
	ErrToolNotFound = errors.New("tool not found")
	// ErrSequence: an operation was invoked out of its required order.
	ErrSequence = errors.New("operation out of sequence")
	// ErrArgument: malformed or ambiguous tool arguments.
	ErrArgument = errors.New("invalid argument")
	// ErrBackend: the model invocation itself failed.
	ErrBackend = errors.New("model backend failed")
)
