package progress

import "errors"

var (
	// ErrStorageRead wraps a corrupted or unreadable persisted payload. The
	// store recovers by falling back to a default record.
	ErrStorageRead = errors.New("progress: storage read failed")

	// ErrStorageWrite wraps a failed persist call. The in-memory record stays
	// authoritative for the session and the next mutation retries the write.
	ErrStorageWrite = errors.New("progress: storage write failed")

	// ErrVersionMismatch is returned by decodeEnvelope when the persisted
	// schema version is not SchemaVersion. The store treats it as absence of
	// data and only logs it.
	ErrVersionMismatch = errors.New("progress: schema version mismatch")

	// ErrImportFailed is the uniform outcome for any failure while importing
	// a backup: malformed JSON, wrong version, or invalid data. Imports never
	// partially apply.
	ErrImportFailed = errors.New("progress: import failed")
)
