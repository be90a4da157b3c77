package cmd

import (
	"github.com/emrgen/folio/internal/config"
	"github.com/emrgen/folio/internal/store"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			cfg.SetupLogging()

			if err := store.NewGormStore(config.GetDb(cfg)).Migrate(); err != nil {
				logrus.Fatalf("migrate: %v", err)
			}
			color.Green("migrated %s database", cfg.DBDriver)
		},
	}

	return command
}
