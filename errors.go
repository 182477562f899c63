package eventproxy

import (
	"errors"

	"github.com/joeycumines/go-eventproxy/dom"
)

// Sentinel errors for proxy construction.
var (
	ErrNilDocument       = errors.New("eventproxy: nil document")
	ErrNoEventName       = errors.New("eventproxy: event name required")
	ErrNoTargetSelector  = errors.New("eventproxy: target selector required")
	ErrTooManySelectors  = errors.New("eventproxy: at most two selectors (proxy, target) may be given")
	ErrProxyNotFound     = errors.New("eventproxy: proxy selector matched no element")
	ErrInvalidRateLimits = errors.New("eventproxy: invalid rate limits")
)

// IsConfigError checks if err is one of the errors returned when a proxy is
// constructed with an invalid configuration, including invalid selectors.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNilDocument) ||
		errors.Is(err, ErrNoEventName) ||
		errors.Is(err, ErrNoTargetSelector) ||
		errors.Is(err, ErrTooManySelectors) ||
		errors.Is(err, ErrProxyNotFound) ||
		dom.IsInvalidSelector(err)
}
