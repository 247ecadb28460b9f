package mailbox

import "errors"

// AuthError indicates that the mailbox rejected the account
// credentials. It aborts the whole fetch.
type AuthError struct {
	Account string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ConnError indicates a transport-level failure talking to the
// mailbox server.
type ConnError struct {
	Message string
	Err     error
}

func (e *ConnError) Error() string {
	return e.Message
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsConnError reports whether err (or any error in its chain) is a
// ConnError.
func IsConnError(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr)
}
