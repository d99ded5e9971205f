package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLedgerWriteConflict means a usage record kept changing underneath a
	// conditional write until the retry budget ran out.
	ErrLedgerWriteConflict = errors.New("usage ledger write conflict")

	// ErrMalformedOracleOutput means nothing usable could be salvaged from
	// the suggestion oracle's response.
	ErrMalformedOracleOutput = errors.New("malformed oracle output")

	// ErrOracleUnavailable means the suggestion oracle could not be reached
	// or kept failing after retries.
	ErrOracleUnavailable = errors.New("suggestion oracle unavailable")

	// ErrNoValidCandidates means every proposed outfit failed validation.
	ErrNoValidCandidates = errors.New("no valid outfit candidates")
)
