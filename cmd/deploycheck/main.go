package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/sixfb/deploycheck/internal/cli"
)

func main() {
	// Best effort: a missing .env is fine, the environment still applies.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
