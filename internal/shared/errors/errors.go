package errors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input: expected an absolute http(s) URL")
	ErrFeedNotFound      = errors.New("no feed found for this URL")
	ErrUnsupportedFormat = errors.New("unsupported feed format")
	ErrAllRelaysFailed   = errors.New("no relay accepted the request")
	ErrSubNotFound       = errors.New("subscription not found")
)
