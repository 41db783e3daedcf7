package credential

import "errors"

var (
	ErrPasswordNotFound = errors.New("application password not found")
	ErrInvalidUsername  = errors.New("username must not be empty")
	ErrAlreadyRevoked   = errors.New("application password already revoked")
)
