package cmd

import (
	"github.com/emrgen/folio/internal/config"
	"github.com/emrgen/folio/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the http api",
		Long: `Start the http api. Settings come from the environment or a .env file:
HTTP_PORT, DB_DRIVER, DATABASE_URL, REDIS_URL, SLOT_DIR, MINIO_ENDPOINT, KAFKA_BROKERS ...`,
		Run: func(cmd *cobra.Command, args []string) {
			server.NewServer(config.LoadConfig()).Start()
		},
	}

	return command
}
