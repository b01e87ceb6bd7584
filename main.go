package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/handlers"
	"taskboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer s.Close()

	authenticator, jwks, err := newAuth(cfg.Auth)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	if jwks != nil {
		defer jwks.EndBackground()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	var broker events.Broker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rc := redis.NewClient(opts)
		defer rc.Close()
		rb := events.NewRedisBroker(rc, events.DefaultChannel, log.WithField("component", "broker"))
		g.Go(func() error { return rb.Run(ctx) })
		broker = rb
		log.WithField("channel", events.DefaultChannel).Info("using redis board change broker")
	} else {
		broker = events.NewMemoryBroker()
	}

	h := handlers.New(s, authenticator, broker, handlers.Options{
		StreamCheckInterval:     cfg.Sync.StreamCheck,
		StreamHeartbeatInterval: cfg.Sync.StreamHeartbeat,
		Logger:                  log.StandardLogger(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts derive from ctx so open event streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		log.Infof("Server starting on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Info("Server stopped")
}

// newAuth builds the token verifier. A JWKS URL enables RS256 tokens from an
// identity provider; JWT_SECRET enables HS256 tokens such as the ones
// boardctl mints. At least one is required.
func newAuth(cfg config.AuthConfig) (*auth.Auth, *keyfunc.JWKS, error) {
	var jwks *keyfunc.JWKS
	if cfg.JWKSURL != "" {
		var err error
		jwks, err = keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				log.WithError(err).Warn("jwks refresh failed")
			},
		})
		if err != nil {
			return nil, nil, err
		}
	}
	a, err := auth.New(jwks, []byte(cfg.JWTSecret), cfg.Audience, cfg.Issuer)
	if err != nil {
		return nil, nil, err
	}
	return a, jwks, nil
}
