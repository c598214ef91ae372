// Command vmpd runs the Vendor Management Portal API server: Case
// Collaboration Spine, Checklist Engine, Evidence Vault, and SOA
// Reconciliation Engine behind one Echo HTTP server. Grounded on the
// teacher's cli/root.go (cobra root command, viper-bound flags, signal-driven
// graceful shutdown), generalized from the teacher's RabbitMQ/CouchDB
// dependency set to vmpd's Postgres/S3/Redis stack.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"vendorops.io/vmp/internal/caseregistry"
	"vendorops.io/vmp/internal/checklist"
	"vendorops.io/vmp/internal/evidence"
	"vendorops.io/vmp/internal/httpapi"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform/config"
	"vendorops.io/vmp/internal/platform/logging"
	"vendorops.io/vmp/internal/soa"
	"vendorops.io/vmp/internal/store"
	"vendorops.io/vmp/internal/tenant"
	"vendorops.io/vmp/internal/thread"
)

var rootCmd = &cobra.Command{
	Use:   "vmpd",
	Short: "Vendor Management Portal API server",
	Long: `vmpd serves the Case Collaboration Spine, Checklist Engine, Evidence
Vault, and SOA Reconciliation Engine over HTTP/JSON, backed by Postgres,
S3-compatible object storage, and Redis notification fan-out.`,
	RunE: runServer,
}

func init() {
	config.BindFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "vmpd"})

	db, err := store.Open(cfg.DatabaseURL, store.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if cerr := store.Close(db); cerr != nil {
			logger.WithError(cerr).Warn("error closing database pool")
		}
	}()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	s3Client, presignClient, err := newS3Clients(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("configuring object store client: %w", err)
	}

	identitySvc := identity.NewService(db, 24*time.Hour)
	tokens := identity.NewTokenService(cfg.SigningKey)
	tenants := tenant.NewStore(db)
	checklistEngine := checklist.NewEngine(db)
	notifier := notify.NewService(db, rdb)
	cases := caseregistry.NewRegistry(db, checklistEngine, tenants, notifier, cfg.SLAWindows)
	threads := thread.NewService(db, notifier)
	evidenceVault := evidence.NewService(db, s3Client, presignClient, checklistEngine, cases, notifier, logger, cfg.ObjectStoreBucket, cfg.SignedURLTTL)
	soaSvc := soa.NewService(db, cases, evidenceVault, notifier, cfg.DateToleranceDays)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := notify.NewTicker(db, notifier, cfg.SLATickerInterval, logger)
	go ticker.Run(ctx)

	deps := httpapi.Dependencies{
		Identity:          identitySvc,
		Tokens:            tokens,
		Cases:             cases,
		Checklist:         checklistEngine,
		Thread:            threads,
		Evidence:          evidenceVault,
		SOA:               soaSvc,
		Notify:            notifier,
		SessionTTL:        24 * time.Hour,
		BreakGlassContact: cfg.BreakGlassContact,
	}

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Port = cfg.Port
	e := httpapi.NewEchoServer(serverCfg, deps, logger)

	go func() {
		logger.WithField("port", serverCfg.Port).Info("vmpd starting")
		if err := httpapi.StartServer(e, serverCfg); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining in-flight requests")

	if err := httpapi.GracefulShutdown(e, serverCfg.ShutdownTimeout); err != nil {
		logger.WithError(err).Error("graceful shutdown did not complete cleanly")
		return err
	}
	logger.Info("vmpd stopped")
	return nil
}

// newS3Clients builds the S3 client and a dedicated presign client from
// static credentials, grounded on the teacher's storage/s3aws.go
// config.LoadDefaultConfig + credentials.NewStaticCredentialsProvider +
// s3.NewFromConfig(..., UsePathStyle) pattern, generalized to also hand back
// an s3.PresignClient for evidence.Presigner.
func newS3Clients(ctx context.Context, cfg config.Config) (*s3.Client, *s3.PresignClient, error) {
	region := cfg.ObjectStoreRegion
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ObjectStoreKey, cfg.ObjectStoreSecret, "")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.ObjectStoreEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ObjectStoreEndpoint)
		}
	})

	return client, s3.NewPresignClient(client), nil
}
