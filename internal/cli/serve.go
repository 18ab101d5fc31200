package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storefront-chat/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, opts, os.Stdout)
			if err != nil {
				return err
			}
			st := a.store.Settings()
			if addr == "" {
				addr = st.ServerAddr
			}

			var metricsHandler http.Handler
			if a.metrics != nil {
				metricsHandler = a.metrics.Handler()
			}
			router := server.NewRouter(a.handler, server.RouterConfig{
				AllowedOrigin: st.AllowedOrigin,
				Metrics:       metricsHandler,
			}, a.log)
			return server.Run(ctx, addr, router, a.log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config, default :8080)")
	return cmd
}
