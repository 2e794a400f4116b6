package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ka2n/zplgraphic/server"
	"github.com/spf13/cobra"
)

// NewServeCmd runs the HTTP conversion service
func NewServeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve POST /zpl converting uploaded images",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("listen")
			maxBody, _ := cmd.Flags().GetInt64("max-body")

			s := server.New(nil, slog.Default())
			s.MaxBodyBytes = maxBody
			hs := &http.Server{
				Addr:              addr,
				Handler:           s.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				slog.InfoContext(ctx, "listening", slog.String("addr", addr))
				errc <- hs.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := hs.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("listen", envOr("LISTEN", "127.0.0.1:12212"), "listen address")
	cmd.Flags().Int64("max-body", server.DefaultMaxBodyBytes, "largest accepted upload in bytes")
	return cmd
}
