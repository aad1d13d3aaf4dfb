package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mwhitby/parley/internal/client/remote"
	"github.com/mwhitby/parley/internal/tui"
)

func main() {
	// Missing .env is fine, the server URL can come from the environment.
	_ = godotenv.Load()

	serverURL := os.Getenv("PARLEY_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	api, err := remote.New(serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(api, api, api); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}
