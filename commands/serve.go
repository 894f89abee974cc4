package commands

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

	"github.com/penwyp/go-sleep-monitor/internal/api"
	"github.com/penwyp/go-sleep-monitor/internal/util"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var (
	listenAddr     string
	allowedOrigins []string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve check-ins and analytics as a JSON API",
		Long: `Serve the check-in store over HTTP. Every user's data is addressed as /api/users/{user}/...

Routes:
  GET    /health
  GET    /api/users/{user}/events
  DELETE /api/users/{user}/events/{id}
  GET    /api/users/{user}/history
  GET    /api/users/{user}/analytics?range=7days|30days|thisMonth|lastMonth&from=&to=
  GET    /api/users/{user}/status
  POST   /api/users/{user}/checkin
  POST   /api/users/{user}/cycles         {"start": "...", "end": "..."}`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8080",
		"Address to listen on")
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "cors-origin", []string{"*"},
		"Origins allowed to call the API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	srv := &http.Server{
		Handler:           api.NewHandler(a, cmd.OutOrStdout(), allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", listener.Addr())
	return serve(ctx, srv, listener)
}

// serve runs srv on listener until ctx ends, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		util.LogInfof("HTTP server listening on %s", listener.Addr())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	util.LogInfo("Shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
