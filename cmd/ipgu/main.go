package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A local .env is the easiest way to carry API keys between runs.
	_ = godotenv.Load()

	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
