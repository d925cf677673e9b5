package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"braintrain/backend/internal/audit"
	authhandler "braintrain/backend/internal/auth/handler"
	authservice "braintrain/backend/internal/auth/service"
	"braintrain/backend/internal/config"
	"braintrain/backend/internal/db"
	"braintrain/backend/internal/gamification"
	otprepo "braintrain/backend/internal/otp/repository"
	otpservice "braintrain/backend/internal/otp/service"
	"braintrain/backend/internal/ratelimit"
	"braintrain/backend/internal/security"
	"braintrain/backend/internal/server"
	"braintrain/backend/internal/server/middleware"
	"braintrain/backend/internal/sms"
	"braintrain/backend/internal/telemetry"
	tokenrepo "braintrain/backend/internal/token/repository"
	tokenservice "braintrain/backend/internal/token/service"
	userhandler "braintrain/backend/internal/user/handler"
	userrepo "braintrain/backend/internal/user/repository"
	userservice "braintrain/backend/internal/user/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		return err
	}
	public, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		return err
	}
	provider := security.NewTokenProvider(signer, public, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(database)
	passcodes := otprepo.NewPostgresRepository(database)
	tokens := tokenrepo.NewPostgresRepository(database)
	registry := tokenservice.NewService(tokens)

	authSvc := authservice.NewService(users, otpservice.NewService(passcodes), registry, provider, hasher, cfg.OTPReturnToClient).
		WithBootstrap(gamification.NewBootstrapper(gamification.NewPostgresStore(database))).
		WithAudit(audit.NewLogger(audit.NewPostgresStore(database)))
	if !cfg.OTPReturnToClient {
		authSvc.WithSender(sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioBaseURL))
	}
	userSvc := userservice.NewService(users, passcodes, tokens)

	opts := server.Options{
		Auth:       authhandler.NewHandler(authSvc),
		Users:      userhandler.NewHandler(userSvc),
		Gate:       middleware.NewGate(provider, users, registry),
		TrustProxy: cfg.TrustProxyHeaders,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		opts.Limiter = ratelimit.NewRedisLimiter(rdb, 10, time.Minute)
	}

	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		producer := telemetry.NewProducer(brokers, cfg.TelemetryKafkaTopic)
		defer producer.Close()
		opts.Emitter = producer
	}
	if cfg.OTLPEndpoint != "" {
		shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, "braintrain-backend")
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(flushCtx)
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Print("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
