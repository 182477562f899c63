package dom

import "errors"

// Sentinel errors for DOM operations.
var (
	ErrInvalidSelector = errors.New("dom: invalid selector")
	ErrInvalidXPath    = errors.New("dom: invalid xpath expression")
	ErrNoBody          = errors.New("dom: document has no body element")
	ErrNotFound        = errors.New("dom: no element matched")
)

// IsInvalidSelector checks if err is a selector or xpath syntax error.
func IsInvalidSelector(err error) bool {
	return errors.Is(err, ErrInvalidSelector) || errors.Is(err, ErrInvalidXPath)
}
