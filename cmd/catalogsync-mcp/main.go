package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpadapter "catalogsync/internal/adapters/mcp"
	"catalogsync/internal/bootstrap"
	"catalogsync/internal/config"
)

func main() {
	configFlag := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		log.Fatalf("catalogsync-mcp: %v", err)
	}
	// stdout carries the protocol; NewLogger writes to stderr
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("catalogsync-mcp: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer app.Close()

	mcpServer := server.NewMCPServer(
		"catalogsync-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, app.Engine)
	mcpadapter.RegisterWriteTools(mcpServer, app.Engine)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
