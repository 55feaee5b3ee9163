// Package handlers holds the gin handlers of `cdt serve` and the shared
// error envelope.
//
// Every failure response carries a stable, machine-readable code:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "unsupported_compound",
//	  "message": "compound is not supported: HOH"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Compound specific:
	ErrCodeUnsupportedCompound = "unsupported_compound"
	ErrCodeUpstreamFailed      = "upstream_failed"
	ErrCodeMalformedResponse   = "malformed_response"
	ErrCodeStoreUnavailable    = "store_unavailable"
)
