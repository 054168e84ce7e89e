package tokenexchange

import (
	"fmt"
)

// ExchangeError reports a failed token exchange. It is not an adminapi.HTTPResponseError, so a
// 401 here is never treated as a recoverable Admin API 401.
type ExchangeError struct {
	Shop      string
	TokenType RequestedTokenType
	Code      int    // HTTP status of the exchange endpoint, 0 if no response was received
	Body      string // Response body, if any
	Err       error
}

func (e *ExchangeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("token exchange for %s (%s) failed with %d: %s", e.Shop, e.TokenType.short(), e.Code, e.Body)
	}
	return fmt.Sprintf("token exchange for %s (%s) failed: %v", e.Shop, e.TokenType.short(), e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
