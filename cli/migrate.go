package cli

import (
	"fmt"

	"github.com/leapzhao/json-docstore/config"
	"github.com/leapzhao/json-docstore/database"
	"github.com/leapzhao/json-docstore/logger"

	"github.com/spf13/cobra"
)

// NewMigrateCommand 创建文档表后退出
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the documents table and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if err := logger.Init(*cfg); err != nil {
				return err
			}

			// CreateStore 按 auto_migrate 决定是否建表，这里总是显式执行
			cfg.Database.AutoMigrate = false
			store, err := database.CreateStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.Database.Type)
			return nil
		},
	}
}
