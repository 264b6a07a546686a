package arcgis

import (
	"fmt"
)

// AuthenticationError reports credentials rejected by the token endpoint or
// an admin request refused for an invalid token.
type AuthenticationError struct {
	Host   string
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication against %s failed: %s: %v", e.Host, e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication against %s failed: %s", e.Host, e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// FetchError reports a manifest that could not be retrieved for one service.
type FetchError struct {
	Service string
	URL     string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch manifest of service %s from %s: %v", e.Service, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
