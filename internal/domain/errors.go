package domain

import "errors"

// Sentinel errors for the core operations. Handlers and callers match these
// with errors.Is; lower layers wrap them with context via fmt.Errorf %w.
var (
	// ErrUnsupportedFormat means the source container cannot be decoded by
	// the available decoder. Aborts the operation for that asset only.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidRange means an extraction window falls outside the source bounds.
	ErrInvalidRange = errors.New("extraction range outside source bounds")

	// ErrInvalidArchive means the archive is not a zip, is missing its
	// manifest or primary JSON, or declares the wrong type. Fatal to the
	// import/export operation.
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrNotFound means a referenced mix, clip, playlist or asset is missing.
	ErrNotFound = errors.New("not found")

	// ErrStorageFull means a persistence write failed even after the
	// eviction retry. The write is abandoned.
	ErrStorageFull = errors.New("storage full")

	// ErrScanCancelled is the distinguished signal for a cooperatively
	// cancelled library scan. Not a normal failure; callers must not report
	// it as one.
	ErrScanCancelled = errors.New("scan cancelled")
)
