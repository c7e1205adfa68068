package accounts

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no account exists for an alias or address.
	ErrNotFound = errors.New("account not found")
	// ErrAlreadyExists is returned on an alias collision during import or
	// deployment.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrNotDeployed is returned when an account has no deployment record
	// for the requested network.
	ErrNotDeployed = errors.New("account is not deployed")
)
