package source

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Drive API errors mapped from HTTP status codes.
var (
	ErrUnauthorized = errors.New("drive: unauthorised (invalid credentials)")
	ErrForbidden    = errors.New("drive: forbidden (folder not shared with the service account?)")
	ErrNotFound     = errors.New("drive: folder not found")
	ErrRateLimited  = errors.New("drive: rate limit exceeded")
)

// wrapDriveError converts a googleapi.Error into one of the sentinels above,
// keeping the original error in the chain.
func wrapDriveError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	var sentinel error
	switch gerr.Code {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		return err
	}
	return errors.Join(sentinel, err)
}
