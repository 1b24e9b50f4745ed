package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when the caller supplies a value that can never be valid.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Unsupported is returned when a configured feature, driver or network is not supported.
	Unsupported = ErrorKind("Unsupported")

	// ConflictSetting is returned when persisted state was produced under different settings.
	ConflictSetting = ErrorKind("Conflict Setting")

	// Closed is returned when an operation is attempted on a closed resource.
	Closed = ErrorKind("Closed")

	// Timeout is returned when an operation does not finish in time.
	Timeout = ErrorKind("Timeout")

	InternalError   = ErrorKind("Internal Error")
	OverflowUint64  = ErrorKind("overflow uint64")
	OverflowUint128 = ErrorKind("overflow uint128")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
