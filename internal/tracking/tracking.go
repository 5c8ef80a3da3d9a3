// Package tracking builds open-tracking pixel URLs and records first opens.
package tracking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
)

const (
	// PathPrefix is where the pixel handler is mounted.
	PathPrefix  = "/track"
	ContentType = "image/gif"
)

var (
	ErrNoBaseURL = errors.New("tracking: base URL is not configured")
	ErrMalformed = errors.New("tracking: malformed pixel request")
)

var pixel = encodePixel()

// Pixel returns a copy of the 1x1 transparent GIF.
func Pixel() []byte {
	return bytes.Clone(pixel)
}

func encodePixel() []byte {
	img := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Transparent, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		panic(fmt.Sprintf("tracking: encode pixel: %v", err))
	}
	return buf.Bytes()
}

// URL returns {baseURL}/track/{email}/{n} with the email path-escaped.
func URL(baseURL, email string, n int) (string, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return "", ErrNoBaseURL
	}
	return baseURL + PathPrefix + "/" + url.PathEscape(email) + "/" + strconv.Itoa(n), nil
}

// Opener is the store method the Tracker needs.
type Opener interface {
	MarkOpened(ctx context.Context, email string, year int) (bool, error)
}

// Tracker records the first open of a SentLog.
type Tracker struct {
	store Opener
}

func NewTracker(store Opener) *Tracker {
	return &Tracker{store: store}
}

// Open parses the raw path values and marks the SentLog as opened. It reports
// whether this call was the first open.
func (t *Tracker) Open(ctx context.Context, rawEmail, rawNumber string) (bool, error) {
	email, n, err := Parse(rawEmail, rawNumber)
	if err != nil {
		return false, err
	}
	first, err := t.store.MarkOpened(ctx, email, n)
	if err != nil {
		return false, fmt.Errorf("tracking: record open: %w", err)
	}
	return first, nil
}

// Parse validates the path values of a pixel request.
func Parse(rawEmail, rawNumber string) (string, int, error) {
	email, err := url.PathUnescape(rawEmail)
	if err != nil {
		return "", 0, fmt.Errorf("%w: email: %v", ErrMalformed, err)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", 0, fmt.Errorf("%w: email %q", ErrMalformed, email)
	}
	n, err := strconv.Atoi(rawNumber)
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("%w: anniversary number %q", ErrMalformed, rawNumber)
	}
	return email, n, nil
}
