package domain

import "errors"

var (
	ErrForbidden   = errors.New("client is forbidden")
	ErrRateLimited = errors.New("client exceeded the allowed request rate")
	ErrRedirected  = errors.New("service is under attack")
)

func IsForbiddenError(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsRateLimitedError(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func IsRedirectedError(err error) bool {
	return errors.Is(err, ErrRedirected)
}

// IsRejection reports whether err is one of the admission rejections rather than
// an internal failure.
func IsRejection(err error) bool {
	return IsForbiddenError(err) || IsRateLimitedError(err) || IsRedirectedError(err)
}
