package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/bazi-reading/internal/adapters/applepay"
	"github.com/quentinrf/bazi-reading/internal/adapters/gemini"
	grpcAdapter "github.com/quentinrf/bazi-reading/internal/adapters/grpc"
	"github.com/quentinrf/bazi-reading/internal/adapters/httpapi"
	"github.com/quentinrf/bazi-reading/internal/adapters/memory"
	"github.com/quentinrf/bazi-reading/internal/adapters/mock"
	"github.com/quentinrf/bazi-reading/internal/adapters/openai"
	"github.com/quentinrf/bazi-reading/internal/adapters/paypal"
	"github.com/quentinrf/bazi-reading/internal/adapters/pdf"
	"github.com/quentinrf/bazi-reading/internal/adapters/resend"
	"github.com/quentinrf/bazi-reading/internal/adapters/sqlite"
	"github.com/quentinrf/bazi-reading/internal/config"
	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/ports"
	"github.com/quentinrf/bazi-reading/pkg/tlsconfig"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogger(cfg)

	log.Info().Msg("starting reading service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize repository
	var repo domain.OrderRepository
	switch cfg.RepoType {
	case "sqlite":
		r, err := sqlite.NewOrderRepository(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open SQLite database")
		}
		defer r.Close()
		repo = r
		log.Info().Str("db_path", cfg.DBPath).Msg("initialized SQLite repository")
	default:
		repo = memory.NewOrderRepository()
		log.Info().Msg("initialized in-memory repository")
	}

	analyst := newAnalyst(ctx, cfg)
	gateway := newGateway(cfg)
	merchant := newMerchantValidator(cfg, gateway)
	mailer := newMailer(cfg)

	product := ports.Product{
		Name:     cfg.ProductName,
		Price:    cfg.Price(),
		Currency: cfg.ProductCurrency,
	}

	var pdfOpts []pdf.Option
	if cfg.PDFFont != "" {
		opt, err := pdf.LoadFont(cfg.PDFFont)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load PDF font")
		}
		pdfOpts = append(pdfOpts, opt)
		log.Info().Str("font", cfg.PDFFont).Msg("using custom PDF font")
	}

	handler := httpapi.NewHandler(
		ports.NewReader(analyst),
		ports.NewCheckout(gateway, repo, product),
		merchant,
		ports.NewCourier(pdf.NewRenderer(cfg.ProductName, pdfOpts...), mailer, repo),
	)

	limiter := httpapi.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Proxies()...)
	go limiter.StartCleanup(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           httpapi.NewRouter(handler, limiter, httpapi.NewMetrics()),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 30*time.Second,
	}

	// Configure TLS if certificates are provided
	var tlsCfg *tls.Config
	if cfg.TLSEnabled() {
		tlsCfg, err = tlsconfig.LoadServerTLS(cfg.TLSCert, cfg.TLSKey, cfg.TLSCA)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		log.Info().Msg("mTLS enabled")
	} else {
		log.Warn().Msg("TLS_CERT not set, gRPC health starting without TLS (dev mode only)")
	}

	checker := grpcAdapter.NewHealthChecker(repo)
	grpcServer := grpcAdapter.NewServer(checker, tlsCfg)
	go checker.Start(ctx, 30*time.Second)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}

	log.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server listening")

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatal().Err(err).Msg("failed to serve gRPC")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to serve HTTP")
		}
	}()

	// Start background pruner
	pruner := ports.NewPruner(repo, cfg.PruneInterval, cfg.OrderRetention)
	go pruner.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	cancel() // Stop pruner, health checks and limiter cleanup
	checker.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown did not complete")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("server stopped")
}

// setupLogger applies LOG_LEVEL and LOG_FORMAT
func setupLogger(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func newAnalyst(ctx context.Context, cfg *config.Config) ports.Analyst {
	switch cfg.LLMProvider {
	case "openai":
		oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		oc.BaseURL = cfg.OpenAIBaseURL
		oc.Model = cfg.OpenAIModel
		oc.Timeout = cfg.LLMTimeout
		client, err := openai.NewClient(oc)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create OpenAI client")
		}
		log.Info().Str("model", client.Model()).Msg("initialized OpenAI analyst")
		return client
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		log.Info().Str("model", client.Model()).Msg("initialized Gemini analyst")
		return client
	default:
		log.Info().Msg("initialized mock analyst")
		return mock.NewFakeAnalyst()
	}
}

// newGateway returns the payment gateway. The mock gateway also answers
// Apple Pay merchant validation when no merchant identity is configured.
func newGateway(cfg *config.Config) ports.PaymentGateway {
	switch cfg.PaymentProvider {
	case "paypal":
		gw, err := paypal.NewGateway(paypal.Config{
			ClientID: cfg.PayPalClientID,
			Secret:   cfg.PayPalClientSecret,
			Mode:     cfg.PayPalMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create PayPal gateway")
		}
		log.Info().Str("mode", cfg.PayPalMode).Msg("initialized PayPal gateway")
		return gw
	default:
		log.Info().Msg("initialized mock payment gateway")
		return mock.NewFakeGateway()
	}
}

func newMerchantValidator(cfg *config.Config, gateway ports.PaymentGateway) ports.MerchantValidator {
	if cfg.ApplePayEnabled() {
		tlsCfg, err := tlsconfig.LoadClientTLS(cfg.AppleMerchantCert, cfg.AppleMerchantKey, "")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load Apple Pay merchant certificate")
		}
		v, err := applepay.NewValidator(applepay.Config{
			MerchantID:  cfg.AppleMerchantID,
			DisplayName: cfg.AppleMerchantName,
			Domain:      cfg.AppleMerchantDomain,
			TLS:         tlsCfg,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Apple Pay validator")
		}
		log.Info().Str("merchant_id", cfg.AppleMerchantID).Msg("initialized Apple Pay merchant validation")
		return v
	}

	if fake, ok := gateway.(*mock.FakeGateway); ok {
		log.Info().Msg("initialized mock Apple Pay merchant validation")
		return fake
	}
	log.Warn().Msg("Apple Pay merchant identity not configured, validate-merchant will fail")
	return unconfiguredMerchant{}
}

type unconfiguredMerchant struct{}

func (unconfiguredMerchant) ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error) {
	return nil, errors.New("Apple Pay is not configured")
}

func newMailer(cfg *config.Config) ports.Mailer {
	switch cfg.MailProvider {
	case "resend":
		m, err := resend.NewMailer(resend.Config{APIKey: cfg.ResendAPIKey, From: cfg.MailFrom})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Resend mailer")
		}
		log.Info().Str("from", cfg.MailFrom).Msg("initialized Resend mailer")
		return m
	default:
		log.Info().Msg("initialized mock mailer")
		return mock.NewFakeMailer()
	}
}
