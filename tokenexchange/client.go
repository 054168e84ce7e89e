package tokenexchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-shop-session/internal/utils"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/jrsteele09/go-shop-session/sessiontoken"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// RequestedTokenType selects an offline (shop-wide) or online (user-bound) access token.
type RequestedTokenType string

const (
	OfflineAccessToken RequestedTokenType = "urn:shopify:params:oauth:token-type:offline-access-token"
	OnlineAccessToken  RequestedTokenType = "urn:shopify:params:oauth:token-type:online-access-token"

	grantTypeTokenExchange  = "urn:ietf:params:oauth:grant-type:token-exchange"
	subjectTokenTypeIDToken = "urn:ietf:params:oauth:token-type:id_token"
)

func (t RequestedTokenType) short() string {
	if t == OnlineAccessToken {
		return "online"
	}
	return "offline"
}

// PostAuthenticateTask runs after every successful exchange with the resulting session.
type PostAuthenticateTask interface {
	Perform(ctx context.Context, session *sessions.Session) error
}

// PostAuthenticateFunc adapts a function to PostAuthenticateTask.
type PostAuthenticateFunc func(ctx context.Context, session *sessions.Session) error

func (f PostAuthenticateFunc) Perform(ctx context.Context, session *sessions.Session) error {
	return f(ctx, session)
}

// Client trades session tokens for access tokens and persists the resulting sessions.
type Client struct {
	decoder    sessiontoken.Decoder
	repo       sessions.Repo
	apiKey     string
	apiSecret  string
	online     bool
	httpClient *http.Client
	tokenURL   func(shop string) string
	postAuth   PostAuthenticateTask
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithOnlineTokens also exchanges for an online token after the offline one.
func WithOnlineTokens(online bool) ClientOption {
	return func(c *Client) {
		c.online = online
	}
}

// WithHTTPClient replaces the HTTP client used for the exchange.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenURL overrides the per-shop token endpoint (primarily for testing).
func WithTokenURL(tokenURL func(shop string) string) ClientOption {
	return func(c *Client) {
		c.tokenURL = tokenURL
	}
}

// WithPostAuthenticateTask registers a task run after each successful exchange.
func WithPostAuthenticateTask(task PostAuthenticateTask) ClientOption {
	return func(c *Client) {
		c.postAuth = task
	}
}

func NewClient(decoder sessiontoken.Decoder, repo sessions.Repo, apiKey, apiSecret string, options ...ClientOption) (*Client, error) {
	if decoder == nil {
		return nil, errors.New("[tokenexchange.NewClient] decoder is required")
	}
	if repo == nil {
		return nil, errors.New("[tokenexchange.NewClient] session repo is required")
	}
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("[tokenexchange.NewClient] api key and secret are required")
	}

	c := &Client{
		decoder:    decoder,
		repo:       repo,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenURL: func(shop string) string {
			return "https://" + shop + "/admin/oauth/access_token"
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Exchange trades bearerToken for an offline session, and additionally an online session when
// online tokens are configured. Each session is stored before the next step; the last one is returned.
func (c *Client) Exchange(ctx context.Context, bearerToken string) (*sessions.Session, error) {
	claims, err := c.decoder.Decode(ctx, bearerToken)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Invalid session token during token exchange")
		return nil, err
	}
	shop := claims.ShopDomain()

	log.Ctx(ctx).Info().Str("shop", shop).Msg("Performing token exchange (offline)")
	session, err := c.exchangeAndStore(ctx, shop, bearerToken, OfflineAccessToken)
	if err != nil {
		return nil, err
	}

	if c.online {
		log.Ctx(ctx).Info().Str("shop", shop).Msg("Performing token exchange (online)")
		if session, err = c.exchangeAndStore(ctx, shop, bearerToken, OnlineAccessToken); err != nil {
			return nil, err
		}
	}

	if c.postAuth != nil {
		if err := c.postAuth.Perform(ctx, session); err != nil {
			return nil, fmt.Errorf("[tokenexchange.Exchange] post authenticate task: %w", err)
		}
	}
	return session, nil
}

func (c *Client) exchangeAndStore(ctx context.Context, shop, bearerToken string, tokenType RequestedTokenType) (*sessions.Session, error) {
	session, err := c.exchangeToken(ctx, shop, bearerToken, tokenType)
	if err != nil {
		var exchangeErr *ExchangeError
		if errors.As(err, &exchangeErr) && exchangeErr.Code != 0 {
			log.Ctx(ctx).Error().Int("code", exchangeErr.Code).Str("body", exchangeErr.Body).
				Msg("Error response during token exchange")
		} else {
			log.Ctx(ctx).Error().Err(err).Msg("An error occurred during the token exchange")
		}
		return nil, err
	}

	if err := c.repo.Store(ctx, session); err != nil {
		if errors.Is(err, sessions.ErrConflict) {
			log.Ctx(ctx).Debug().Str("session_id", session.ID).Msg("Session not stored due to concurrent token exchange calls")
			return session, nil
		}
		return nil, fmt.Errorf("[tokenexchange.Exchange] store session %s: %w", session.ID, err)
	}
	return session, nil
}

func (c *Client) exchangeToken(ctx context.Context, shop, bearerToken string, tokenType RequestedTokenType) (*sessions.Session, error) {
	cfg := clientcredentials.Config{
		ClientID:     c.apiKey,
		ClientSecret: c.apiSecret,
		TokenURL:     c.tokenURL(shop),
		AuthStyle:    oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"grant_type":           {grantTypeTokenExchange},
			"subject_token":        {bearerToken},
			"subject_token_type":   {subjectTokenTypeIDToken},
			"requested_token_type": {string(tokenType)},
		},
	}

	token, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		exchangeErr := &ExchangeError{Shop: shop, TokenType: tokenType, Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			exchangeErr.Code = retrieveErr.Response.StatusCode
			exchangeErr.Body = string(retrieveErr.Body)
		}
		return nil, exchangeErr
	}

	session, err := sessionFromToken(shop, token)
	if err != nil {
		return nil, &ExchangeError{Shop: shop, TokenType: tokenType, Err: err}
	}
	return session, nil
}

// sessionFromToken maps an access token response onto a Session. A response carrying an
// associated user is an online session and expires; otherwise it is the shop's offline session.
func sessionFromToken(shop string, token *oauth2.Token) (*sessions.Session, error) {
	session := &sessions.Session{
		ID:          sessions.OfflineID(shop),
		Shop:        shop,
		AccessToken: token.AccessToken,
	}
	session.Scope, _ = token.Extra("scope").(string)
	session.AssociatedUserScope, _ = token.Extra("associated_user_scope").(string)
	session.ExternalSessionID, _ = token.Extra("session").(string)

	rawUser := token.Extra("associated_user")
	if rawUser == nil {
		return session, nil
	}

	encoded, err := json.Marshal(rawUser)
	if err != nil {
		return nil, fmt.Errorf("encode associated_user: %w", err)
	}
	var user sessions.AssociatedUser
	if err := json.Unmarshal(encoded, &user); err != nil {
		return nil, fmt.Errorf("decode associated_user: %w", err)
	}

	session.ID = sessions.OnlineID(shop, strconv.FormatInt(user.ID, 10))
	session.IsOnline = true
	session.AssociatedUser = &user
	if !token.Expiry.IsZero() {
		session.Expires = utils.Ptr(token.Expiry)
	}
	return session, nil
}
