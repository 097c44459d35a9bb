package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight/internal/adapters/driving/httpapi"
	"github.com/finsight-labs/finsight/internal/adapters/driving/mcp"
	"github.com/finsight-labs/finsight/internal/logger"
)

var (
	serveAddr    string
	serveMCPPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server for uploads, chat, and session management.

Use --mcp-port to additionally expose the MCP tool surface over HTTP
for AI assistant integration.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().IntVar(&serveMCPPort, "mcp-port", 0, "serve MCP over HTTP on this port (0 = disabled)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if !servicesReady() {
		return errors.New("services not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sweep vector namespaces orphaned by an interrupted delete before
	// taking traffic.
	removed, err := sessionService.Reconcile(ctx)
	if err != nil {
		logger.Warn("Reconcile failed: %v", err)
	} else if removed > 0 {
		logger.Info("Reconciled %d orphaned vector namespace(s)", removed)
	}

	addr := serveAddr
	if addr == "" {
		addr = appSettings.Server.Addr
	}

	server, err := httpapi.NewServer(httpapi.Config{Addr: addr}, &httpapi.Ports{
		Upload:  uploadService,
		Ask:     askService,
		Session: sessionService,
	})
	if err != nil {
		return err
	}

	running := 1
	errCh := make(chan error, 2)

	if serveMCPPort > 0 {
		mcpServer, err := mcp.NewServer(&mcp.Ports{
			Ask:     askService,
			Session: sessionService,
		})
		if err != nil {
			return err
		}

		mcpAddr := fmt.Sprintf(":%d", serveMCPPort)
		cmd.Printf("MCP server listening on http://localhost%s\n", mcpAddr)
		running++
		go func() {
			errCh <- mcpServer.RunHTTP(ctx, mcpAddr)
		}()
	}

	cmd.Printf("API server listening on http://localhost%s\n", server.Addr())
	go func() {
		errCh <- server.Run(ctx)
	}()

	// First failure cancels the other server; a clean shutdown drains
	// both as nil.
	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			stop()
		}
	}
	return firstErr
}
