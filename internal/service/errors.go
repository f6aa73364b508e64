package service

// Operation failures carry an explicit kind so the HTTP boundary can map
// them to a status code by matching on the tag, never by inspecting
// message strings.

// Kind classifies an operation failure.
type Kind int

const (
	KindValidation Kind = iota + 1 // bad input shape/type/size
	KindAuth                       // missing or invalid credential
	KindNotFound                   // missing or not-owned resource
	KindStorage                    // blob store I/O failure
)

// Error is the tagged error type produced by service operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a KindValidation error with a client-safe message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Auth builds a KindAuth error with a client-safe message.
func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

// NotFound builds a KindNotFound error with a client-safe message.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// StorageFailure wraps a blob store I/O error.
func StorageFailure(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}
