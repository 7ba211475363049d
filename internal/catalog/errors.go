package catalog

import "errors"

// Data source errors. Individual bad rows are never errors; they are
// skipped and counted in the fetch result.
var (
	// ErrSourceUnavailable is returned when the source cannot be reached.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrUnrecognizedHeader is returned when the header row does not
	// match the expected product schema.
	ErrUnrecognizedHeader = errors.New("unrecognized header row")

	// ErrEmptySource is returned when the source has no rows at all.
	ErrEmptySource = errors.New("data source returned no rows")
)

// DataSourceError wraps a fatal ingestion failure with its source.
type DataSourceError struct {
	SourceID string
	Err      error
}

func (e *DataSourceError) Error() string {
	return "data source " + e.SourceID + ": " + e.Err.Error()
}

func (e *DataSourceError) Unwrap() error { return e.Err }
