package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/adaptsim/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing adapter composition and review sessions.

Endpoints:
  GET    /health                                  Health check
  GET    /api/domains                             List domains
  GET    /api/adapters/{domain}?role=&level=&tier= Compose an adapter
  GET    /api/audit?skip=                         Audit every combination
  POST   /api/reviews                             Open a review session
  GET    /api/reviews                             List sessions
  GET    /api/reviews/{id}                        Session snapshot
  DELETE /api/reviews/{id}                        Close a session
  POST   /api/reviews/{id}/comments               Add a reviewer round
  POST   /api/reviews/{id}/responses              Respond to a thread
  POST   /api/reviews/{id}/tests                  Record a test run
  POST   /api/reviews/{id}/submission             Attach a submission
  POST   /api/reviews/{id}/rereview               Request re-review
  POST   /api/reviews/{id}/approve                Approve
  POST   /api/reviews/{id}/merge                  Merge
  POST   /api/reviews/{id}/threads/{tid}/{action} resolve, dismiss or reopen
  GET    /api/ws                                  WebSocket review session

Mutating requests may carry "version"; a stale version is answered with 412.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	adapters, err := loadAdapters()
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.New(cfg.Server.Address(), newSessions(adapters), logger.Named("api"))
	return srv.ListenAndServe(ctx)
}
