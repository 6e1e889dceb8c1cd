package store

import "errors"

// Sentinel errors returned by store methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrChangeNotFound is returned when an operation targets a pending
	// change id that is not present in the queue.
	ErrChangeNotFound = errors.New("pending change not found")

	// ErrRecordNotFound is returned when a query targets an entity record
	// (identified by entity type and id) that does not exist locally.
	ErrRecordNotFound = errors.New("entity record not found")

	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// record database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan record row")
)
