package domain

// Error is a constant string error, comparable with ==.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrCredentialNotFound Error = "refresh credential not found"
	ErrUserNotFound       Error = "user not found"
	ErrInvalidCredentials Error = "invalid credentials"
	ErrAccountInactive    Error = "account is inactive"
	ErrTokenBlacklisted   Error = "token is blacklisted"
	ErrEmptyMessage       Error = "message content is empty"
	ErrSelfMessage        Error = "cannot message yourself"
)
