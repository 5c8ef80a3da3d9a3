package directory

import "errors"

var (
	ErrFetch       = errors.New("directory: fetch failed")
	ErrStatus      = errors.New("directory: unexpected status")
	ErrDecode      = errors.New("directory: decode failed")
	ErrInvalidDate = errors.New("directory: invalid employee date")

	// ErrInvalidBirthDate is returned with a usable Person: only the birthday
	// is lost.
	ErrInvalidBirthDate = errors.New("directory: invalid birth date")
)
