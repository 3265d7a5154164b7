package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remiblancher/sigalg/internal/api/server"
	"github.com/remiblancher/sigalg/internal/logging"
)

// Serve command flags
var (
	servePort      int
	serveHost      string
	servePolicy    string
	serveTLSCert   string
	serveTLSKey    string
	serveMaxConns  int
	serveLogLevel  string
	serveLogFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the classification REST API",
	Long: `Start the classification REST API.

Endpoints:
  GET  /health                       Liveness
  GET  /ready                        Readiness (fails when the audit log is closed)
  GET  /api/openapi.yaml             OpenAPI description
  GET  /api/v1/algorithms            Catalogue with policy decisions
  POST /api/v1/classify              Classify an AlgorithmIdentifier
  POST /api/v1/certificates/inspect  Inspect a certificate, CSR or CRL
  POST /api/v1/channel-binding       Compute tls-server-end-point

Responses are JSON, or CBOR when the client sends Accept: application/cbor.

Environment variables:
  SIGALG_PORT      Port (default: 8443)
  SIGALG_HOST      Host to bind to
  SIGALG_POLICY    Built-in policy name or policy file
  SIGALG_TLS_CERT  TLS certificate file
  SIGALG_TLS_KEY   TLS private key file

Examples:
  # Plain HTTP on port 8080 with the modern policy
  sigalg serve --port 8080 --policy modern

  # With TLS and an audit log
  sigalg serve --tls-cert server.crt --tls-key server.key --audit-log audit.jsonl`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, fmt.Sprintf("Port to listen on (default: %d)", server.DefaultPort))
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().StringVarP(&servePolicy, "policy", "p", "", "Built-in policy name or policy file")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")
	serveCmd.Flags().IntVar(&serveMaxConns, "max-connections", 256, "Maximum concurrent connections (0: unlimited)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", logging.FormatJSON, "Log format: json or console")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv, err := server.New(cfg, version, logger.Named("api"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting sigalg",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("policy", srv.Policy().Name),
	)
	return srv.Run(ctx)
}

// serveConfig merges flags, then SIGALG_* variables, then defaults.
func serveConfig() (*server.Config, error) {
	cfg := server.DefaultConfig()
	cfg.Port = servePort
	cfg.Host = serveHost
	cfg.Policy = servePolicy
	cfg.TLSCert = serveTLSCert
	cfg.TLSKey = serveTLSKey
	cfg.MaxConnections = serveMaxConns
	cfg.LogLevel = serveLogLevel
	cfg.LogFormat = serveLogFormat

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = server.DefaultPort
	}
	return cfg, cfg.Validate()
}
