package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-shop-session/internal/utils"
)

const (
	offlineIDPrefix = "offline_"
)

// AssociatedUser is the end-user an online session is bound to.
type AssociatedUser struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	AccountOwner  bool   `json:"account_owner"`
	Locale        string `json:"locale"`
	Collaborator  bool   `json:"collaborator"`
}

// Session is an authenticated identity against a shop. It is handled by pointer so that
// credential updates made during token refetching are seen by every holder of the reference.
type Session struct {
	ID                  string          `json:"id"`                              // Store key, never changes
	Shop                string          `json:"shop"`                            // Tenant, e.g. "my-shop.myshopify.com"
	State               string          `json:"state,omitempty"`                 // OAuth state / nonce
	AccessToken         string          `json:"access_token"`                    // Secret used against the Admin API
	Scope               string          `json:"scope"`                           // Comma-delimited granted scopes
	AssociatedUserScope string          `json:"associated_user_scope,omitempty"` // Online sessions only
	Expires             *time.Time      `json:"expires,omitempty"`               // Nil for offline sessions
	AssociatedUser      *AssociatedUser `json:"associated_user,omitempty"`       // Nil for offline sessions
	IsOnline            bool            `json:"is_online"`
	ExternalSessionID   string          `json:"external_session_id,omitempty"` // Exchange backend's session id
}

// OfflineID returns the store key of the shop-wide session.
func OfflineID(shop string) string {
	return offlineIDPrefix + shop
}

// OnlineID returns the store key of a session bound to a single user of the shop.
func OnlineID(shop, userID string) string {
	return fmt.Sprintf("%s_%s", shop, userID)
}

// Expired reports whether the session has an expiry and it is before now.
func (s *Session) Expired(now time.Time) bool {
	if s.Expires == nil {
		return false
	}
	return s.Expires.Before(now)
}

// Scopes splits the granted scope into its individual permissions.
func (s *Session) Scopes() []string {
	var scopes []string
	for _, scope := range strings.Split(s.Scope, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

// CopyAttributes overwrites the credential, temporal and provenance fields of s with those of from.
// The identity (ID) and mode (IsOnline) of s are left untouched. The copy is total, so applying it
// twice yields the same result as applying it once.
func (s *Session) CopyAttributes(from *Session) {
	s.Shop = from.Shop
	s.State = from.State
	s.AccessToken = from.AccessToken
	s.Scope = from.Scope
	s.AssociatedUserScope = from.AssociatedUserScope
	s.Expires = utils.Copy(from.Expires)
	s.AssociatedUser = utils.Copy(from.AssociatedUser)
	s.ExternalSessionID = from.ExternalSessionID
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := &Session{ID: s.ID, IsOnline: s.IsOnline}
	clone.CopyAttributes(s)
	return clone
}
