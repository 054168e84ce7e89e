package adminapi

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPResponseError is returned when the Admin API answers with a non-2xx status.
type HTTPResponseError struct {
	Code   int
	Body   string
	Header http.Header
}

func (e *HTTPResponseError) Error() string {
	return fmt.Sprintf("admin api responded %d: %s", e.Code, e.Body)
}

// StatusCode returns the status code of the first HTTPResponseError in err's chain.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPResponseError
	if errors.As(err, &httpErr) {
		return httpErr.Code, true
	}
	return 0, false
}

// IsUnauthorized reports whether err carries a 401 from the Admin API.
func IsUnauthorized(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusUnauthorized
}
