// Package main is the entry point for the issue-mcp server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jamesprial/issue-mcp/internal/auth"
	"github.com/jamesprial/issue-mcp/internal/config"
	"github.com/jamesprial/issue-mcp/internal/graphql"
	"github.com/jamesprial/issue-mcp/internal/issues"
	"github.com/jamesprial/issue-mcp/internal/safety"
	"github.com/jamesprial/issue-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file (default $ISSUE_MCP_CONFIG_PATH or config.yaml)")
	flag.Parse()

	cfg, loadErr := loadConfig(*configPath)
	config.ApplyEnvOverrides(cfg)

	logger := configureLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	if loadErr != nil {
		logger.Warn("could not load config, using defaults", "error", loadErr)
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		logger.Warn("could not generate auth token, running without authentication", "error", err)
	} else if tokenBefore == "" {
		logger.Info("generated auth token (set ISSUE_MCP_AUTH_TOKEN to persist)", "token", token)
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Warn("could not open audit log, audit logging disabled", "path", cfg.Audit.LogPath, "error", err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	gqlClient, err := graphql.NewHTTPClient(cfg.GraphQL,
		graphql.WithLogger(logger),
		graphql.WithAlerter(graphql.LogAlerter(logger)),
	)
	if err != nil {
		logger.Error("failed to create GraphQL client", "error", err)
		os.Exit(1)
	}
	probeBackend(gqlClient, logger)

	issueMgr := issues.NewGraphQLIssueManager(gqlClient)
	filters := issues.Filters{
		Owners:   safety.FilterFromConfig(cfg.Safety.Owners),
		Statuses: safety.FilterFromConfig(cfg.Safety.Statuses),
	}
	confirm := safety.NewConfirmationTracker(issues.DestructiveTools)

	mcpServer := server.NewMCPServer(
		"issue-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	var registrations []tools.Registration
	registrations = append(registrations, issues.IssueTools(issueMgr, filters, confirm, auditLogger)...)
	registrations = append(registrations, graphql.GraphQLTools(gqlClient, auditLogger)...)
	names := tools.RegisterAll(mcpServer, registrations)
	logger.Info("registered tools", "tools", strings.Join(names, ","))

	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	wrappedHandler := auth.NewAuthMiddleware(cfg.Server.AuthToken, logger)(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("issue-mcp listening", "addr", addr, "graphql", cfg.GraphQL.URL)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// loadConfig reads the config file named by path, $ISSUE_MCP_CONFIG_PATH, or
// config.yaml, in that order. On failure it returns DefaultConfig along with
// the error so the caller can log it once logging is configured.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("ISSUE_MCP_CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.DefaultConfig(), fmt.Errorf("load %q: %w", path, err)
	}
	return cfg, nil
}

// configureLogger builds the process logger from the log section of the
// config.
func configureLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// probeBackend issues one issueList query at startup. Failures surface
// through the client's alerter and never stop the server.
func probeBackend(c *graphql.HTTPClient, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if data := c.Fetch(ctx, `query { issueList { id } }`, nil); data != nil {
		logger.Info("issue tracker reachable")
	}
}
