package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/washout/internal/logging"
	"github.com/nvandessel/washout/internal/ratelimit"
	"github.com/nvandessel/washout/internal/simulation"
)

// Server wraps the MCP SDK server and exposes the washout tools.
type Server struct {
	server       *sdk.Server
	scenario     *simulation.Scenario
	logger       *slog.Logger
	steps        *logging.StepLogger
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "washout")
	Version string // Server version

	// Scenario is used by tools called without an inline scenario.
	// Nil means simulation.DefaultScenario().
	Scenario *simulation.Scenario

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
	Steps  *logging.StepLogger
}

// NewServer creates a new MCP server with washout tools.
func NewServer(cfg *Config) (*Server, error) {
	sc := cfg.Scenario
	if sc == nil {
		sc = simulation.DefaultScenario()
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("default scenario: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		scenario:     sc,
		logger:       logger,
		steps:        cfg.Steps,
		toolLimiters: ratelimit.NewToolLimiters(),
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	if err := s.registerTools(); err != nil {
		s.auditLogger.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	if err := s.registerResources(); err != nil {
		s.auditLogger.Close()
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	s.logger.Info("mcp server starting", "scenario", s.scenario.Name)
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.Close()

	return err
}

// Close releases the audit log. It is safe to call more than once.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
