package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-shop-session/adminapi"
	"github.com/jrsteele09/go-shop-session/auth"
	"github.com/jrsteele09/go-shop-session/internal/config"
	"github.com/jrsteele09/go-shop-session/internal/metrics"
	"github.com/jrsteele09/go-shop-session/internal/tokencipher"
	"github.com/jrsteele09/go-shop-session/server"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/jrsteele09/go-shop-session/sessions/pgrepo"
	"github.com/jrsteele09/go-shop-session/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-shop-session/sessions/repofakes"
	"github.com/jrsteele09/go-shop-session/sessiontoken"
	"github.com/jrsteele09/go-shop-session/tokenexchange"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	runUntilStopped(run, 1*time.Second)
	log.Info().Msg("Server stopped")
}

// runUntilStopped restarts run after each failure and returns once it exits cleanly.
func runUntilStopped(run func() error, backoff time.Duration) {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server, restarting")
			time.Sleep(backoff)
		} else {
			break
		}
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()
	repo, closeRepo, err := newSessionRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	handler, err := newHandler(ctx, c, repo)
	if err != nil {
		return err
	}

	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if c.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	// log.Ctx falls back to this logger outside of a request
	zerolog.DefaultContextLogger = &log.Logger
}

func newSessionRepo(ctx context.Context, c config.StoreConfig) (sessions.Repo, func(), error) {
	var cipher *tokencipher.Cipher
	if key := c.GetTokenEncryptionKey(); key != "" {
		var err error
		if cipher, err = tokencipher.NewFromBase64(key); err != nil {
			return nil, nil, fmt.Errorf("[newSessionRepo] token encryption key: %w", err)
		}
	}

	switch c.GetSessionStore() {
	case config.SessionStoreRedis:
		options := []redisrepo.Option{redisrepo.WithTTL(c.GetSessionTTL())}
		if cipher != nil {
			options = append(options, redisrepo.WithCipher(cipher))
		}
		repo, err := redisrepo.NewFromURL(ctx, c.GetRedisURL(), options...)
		if err != nil {
			return nil, nil, fmt.Errorf("[newSessionRepo] redis: %w", err)
		}
		log.Info().Msg("Storing sessions in redis")
		return repo, func() { _ = repo.Close() }, nil

	case config.SessionStorePostgres:
		pool, err := pgrepo.Connect(ctx, c.GetDatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("[newSessionRepo] postgres: %w", err)
		}
		var options []pgrepo.Option
		if cipher != nil {
			options = append(options, pgrepo.WithCipher(cipher))
		}
		repo := pgrepo.New(pool, options...)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("[newSessionRepo] postgres migrate: %w", err)
		}
		log.Info().Msg("Storing sessions in postgres")
		return repo, pool.Close, nil

	case config.SessionStoreMemory:
		log.Warn().Msg("Storing sessions in memory, they are lost on restart")
		return fakesessionrepo.NewFakeSessionRepo(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("[newSessionRepo] unknown session store %q", c.GetSessionStore())
	}
}

func newDecoder(ctx context.Context, c config.AppConfig) sessiontoken.Decoder {
	if c.GetSessionTokenIssuer() != "" && c.GetSessionTokenJWKSURL() != "" {
		return sessiontoken.NewOIDCDecoder(ctx, c.GetSessionTokenIssuer(), c.GetSessionTokenJWKSURL(), c.GetAPIKey(), time.Now)
	}
	return sessiontoken.NewHMACDecoder(c.GetAPIKey(), c.GetAPISecretKey(), sessiontoken.WithLeeway(c.GetSessionTokenLeeway()))
}

func newHandler(ctx context.Context, c config.Config, repo sessions.Repo) (http.Handler, error) {
	if c.GetAPIKey() == "" || c.GetAPISecretKey() == "" {
		return nil, errors.New("[newHandler] SHOPIFY_API_KEY and SHOPIFY_API_SECRET are required")
	}

	decoder := newDecoder(ctx, c)

	exchangeOptions := []tokenexchange.ClientOption{
		tokenexchange.WithOnlineTokens(c.GetOnlineTokenConfigured()),
		tokenexchange.WithPostAuthenticateTask(tokenexchange.PostAuthenticateFunc(func(ctx context.Context, session *sessions.Session) error {
			log.Ctx(ctx).Info().Str("shop", session.Shop).Str("session_id", session.ID).Msg("Shop authenticated")
			return nil
		})),
	}
	if tokenURL := c.GetTokenURL(); tokenURL != "" {
		exchangeOptions = append(exchangeOptions, tokenexchange.WithTokenURL(func(string) string { return tokenURL }))
	}
	exchanger, err := tokenexchange.NewClient(decoder, repo, c.GetAPIKey(), c.GetAPISecretKey(), exchangeOptions...)
	if err != nil {
		return nil, err
	}

	sessionMetrics := metrics.New()
	activator, err := auth.NewActivator(repo, sessiontoken.NewKeyResolver(decoder), exchanger,
		auth.WithCheckSessionExpiry(c.GetCheckSessionExpiryDate()),
		auth.WithOnlineTokens(c.GetOnlineTokenConfigured()),
		auth.WithObserver(sessionMetrics),
	)
	if err != nil {
		return nil, err
	}

	adminOptions := []adminapi.ClientOption{adminapi.WithAPIVersion(c.GetAPIVersion())}
	if baseURL := c.GetAdminBaseURL(); baseURL != "" {
		adminOptions = append(adminOptions, adminapi.WithBaseURL(func(string) string { return baseURL }))
	}

	srv, err := server.New(c, activator, adminapi.NewClient(adminOptions...), server.WithMetricsHandler(sessionMetrics.Handler()))
	if err != nil {
		return nil, err
	}
	return srv, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
