package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrStoreFailure indicates a collaborator store rejected a read or write.
	// Adapters wrap their driver errors with it so services can tell a
	// storage fault apart from a missing entity.
	ErrStoreFailure = errors.New("store failure")

	// ErrFetchFailed indicates a rendered document could not be retrieved.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrEmptyResponse indicates a fetch returned no body.
	ErrEmptyResponse = errors.New("empty response")

	// ErrBufferNotFound indicates a capture buffer was closed by someone else.
	ErrBufferNotFound = errors.New("capture buffer not found")

	// ErrScanInProgress indicates a scheduled sweep is already running.
	ErrScanInProgress = errors.New("scan in progress")
)
