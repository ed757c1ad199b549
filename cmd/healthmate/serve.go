package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "healthmate/internal/adapter/http"
	"healthmate/internal/adapter/memory"
	"healthmate/internal/adapter/oidc"
	"healthmate/internal/adapter/rabbitmq"
	"healthmate/internal/adapter/smtp"
	"healthmate/internal/adapter/stripe"
	"healthmate/internal/app"
	"healthmate/internal/config"
	"healthmate/internal/domain"
	"healthmate/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.Load,
			provideLogger,
			provideStorage,
			provideTokenStore,
			provideMailer,
			provideEvents,
			providePayments,
			provideVerifier,
			provideServices,
			provideServer,
		),
		fx.Invoke(startHTTP),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(context.Background(), startTimeout)
	defer startCancel()
	if err := fxApp.Start(startCtx); err != nil {
		if errors.Is(startCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("start timed out after %s, check that postgres, redis and rabbitmq are reachable: %w", startTimeout, err)
		}
		return err
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	return fxApp.Stop(stopCtx)
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}

func provideStorage(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	st, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return st.close()
		},
	})
	return st, nil
}

func provideMailer(cfg *config.Config, logger *zap.Logger) domain.Mailer {
	if cfg.Mail.Host == "" {
		logger.Warn("SMTP_HOST not set, mail is kept in memory")
		return memory.NewOutbox(logger)
	}
	return smtp.New(smtp.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)
}

func provideEvents(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (domain.EventPublisher, error) {
	if cfg.RabbitMQ.URL == "" {
		return memory.NewEventLog(logger), nil
	}
	conn, err := rabbitmq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	pub, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}

// providePayments returns nil when Stripe is not configured; checkout
// endpoints then fail with an internal error.
func providePayments(cfg *config.Config, logger *zap.Logger) (domain.PaymentProvider, error) {
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, payments disabled")
		return nil, nil
	}
	p, err := stripe.New(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func provideVerifier(cfg *config.Config) (*oidc.Verifier, error) {
	if cfg.OAuth.GoogleClientID == "" && cfg.OAuth.AppleClientID == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return oidc.New(ctx, oidc.Config{
		GoogleClientID:     cfg.OAuth.GoogleClientID,
		GoogleClientSecret: cfg.OAuth.GoogleClientSecret,
		GoogleRedirectURL:  cfg.OAuth.GoogleRedirectURL,
		AppleClientID:      cfg.OAuth.AppleClientID,
	})
}

func newTokenIssuer(cfg *config.Config) (*app.TokenIssuer, error) {
	return app.NewTokenIssuer(app.TokenConfig{
		AccessSecret:  []byte(cfg.Auth.JWTSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshTokenSecret),
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	})
}

type serviceDeps struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Storage  *storage
	Store    domain.KeyValueStore
	Mailer   domain.Mailer
	Events   domain.EventPublisher
	Payments domain.PaymentProvider
	Verifier *oidc.Verifier
}

func provideServices(d serviceDeps) (adapthttp.Services, error) {
	tokens, err := newTokenIssuer(d.Config)
	if err != nil {
		return adapthttp.Services{}, err
	}

	var verifier domain.IdentityVerifier
	if d.Verifier != nil {
		verifier = d.Verifier
	}

	st := d.Storage
	steps := app.NewMetricService(domain.Steps, st.steps, st.users, d.Events, d.Logger)
	sleep := app.NewMetricService(domain.Sleep, st.sleep, st.users, d.Events, d.Logger)
	heartRate := app.NewMetricService(domain.HeartRate, st.heartRate, st.users, d.Events, d.Logger)
	spo2 := app.NewMetricService(domain.SpO2, st.spo2, st.users, d.Events, d.Logger)
	bloodPressure := app.NewMetricService(domain.BloodPressure, st.bloodPressure, st.users, d.Events, d.Logger)

	return adapthttp.Services{
		Auth: app.NewAuthService(st.users, st.subs, d.Store, d.Mailer, verifier, tokens, app.AuthConfig{
			OTPTTL:   d.Config.Auth.OTPTTL,
			ResetTTL: d.Config.Auth.ResetTTL,
			AppName:  d.Config.AppName,
		}, d.Logger),
		Users:         app.NewUserService(st.users),
		Steps:         steps,
		Sleep:         sleep,
		HeartRate:     heartRate,
		SpO2:          spo2,
		BloodPressure: bloodPressure,
		Rollup:        app.NewRollupService(st.users, steps, sleep, heartRate, spo2, bloodPressure),
		Subscriptions: app.NewSubscriptionService(st.users, st.subs, d.Payments, d.Events, d.Logger),
		Dashboard:     app.NewDashboardService(st.users, st.conversations),
		Conversations: app.NewConversationService(st.conversations),
		Problems:      app.NewProblemService(d.Mailer, d.Config.Mail.Support, d.Logger),
	}, nil
}

func provideServer(svc adapthttp.Services, cfg *config.Config, logger *zap.Logger, verifier *oidc.Verifier) *adapthttp.Server {
	opts := []adapthttp.Option{adapthttp.WithCORSOrigins(cfg.CORSOrigins)}
	if verifier != nil {
		if web := verifier.WebFlow(); web != nil {
			opts = append(opts, adapthttp.WithGoogleWebFlow(web))
		}
	}
	return adapthttp.New(svc, logger, opts...)
}

func startHTTP(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, srv *adapthttp.Server) {
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", httpSrv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", httpSrv.Addr, err)
			}
			logger.Info("listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down http server")
			return httpSrv.Shutdown(ctx)
		},
	})
}
