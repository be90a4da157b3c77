package main

import (
	"os"

	"github.com/emrgen/folio/internal/config"
	"github.com/emrgen/folio/internal/server"
	"github.com/sirupsen/logrus"
)

// debug runs the api with verbose logging against a throwaway sqlite database and
// in-memory slots.
func main() {
	cfg := config.LoadConfig()
	cfg.LogLevel = "debug"
	cfg.DBDriver = "sqlite"
	cfg.DatabaseURL = "./.tmp/debug.db"
	cfg.RedisURL = ""
	cfg.SlotDir = ""
	cfg.KafkaBrokers = ""

	if err := os.MkdirAll("./.tmp", 0o755); err != nil {
		logrus.Fatal(err)
	}

	if err := server.Start(cfg); err != nil {
		logrus.Fatal(err)
	}
}
