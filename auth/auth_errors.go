package auth

import "errors"

var (
	MissingSessionTokenErr = errors.New("missing session token")
	SessionUnavailableErr  = errors.New("no session available after token exchange")
)
