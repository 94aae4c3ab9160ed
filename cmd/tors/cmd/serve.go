package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tors/backend/file"
	"tors/backend/registry"
	"tors/internal/server"
	"tors/internal/utils"
)

// shutdownTimeout bounds the graceful stop of the reference service
const shutdownTimeout = 5 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tors HTTP service",
		Long: "Run the HTTP service the remote mode talks to. State is kept in a YAML " +
			"document that is saved after every change.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			apiKey, _ := cmd.Flags().GetString("api-key")
			data, _ := cmd.Flags().GetString("data")

			if addr == "" {
				addr = a.conf.Server.Addr
			}
			if data == "" {
				data = a.conf.Server.Data
			}
			if apiKey == "" {
				apiKey = a.credentials(a.conf.Remote.UseKeyring).Resolve(cmd.Context(), a.conf.Remote.APIKey).APIKey
			}
			if apiKey == "" {
				return utils.ErrAPIKeyMissing()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, addr, apiKey, data)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from server.addr)")
	cmd.Flags().String("api-key", "", "API key clients must send")
	cmd.Flags().String("data", "", "Path of the YAML document (default from server.data)")
	return cmd
}

// serve runs the service until ctx is cancelled
func (a *app) serve(ctx context.Context, addr, apiKey, data string) error {
	store, err := file.NewStore(data)
	if err != nil {
		return err
	}
	policy, err := registry.PolicyByName(a.conf.Local.IDPolicy)
	if err != nil {
		return err
	}

	srv, err := server.New(store, apiKey, utils.GetLogger().Logrus(), registry.WithIDPolicy(policy))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
