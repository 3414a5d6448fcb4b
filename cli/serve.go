package cli

import (
	"context"
	"time"

	"github.com/leapzhao/json-docstore/app"
	"github.com/leapzhao/json-docstore/config"

	"github.com/spf13/cobra"
)

// NewServeCommand 启动HTTP服务
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			application, err := app.New(ctx, cfg, buildInfo())
			if err != nil {
				return err
			}
			return application.Run()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "override server.port")

	return cmd
}
