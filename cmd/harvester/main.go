package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/msc-search/harvester/internal/cli"
)

func main() {
	// Secrets and the resume cursor may come from a local .env file;
	// absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
