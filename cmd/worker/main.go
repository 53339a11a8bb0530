package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/talentloop/talentloop-backend/internal/app"
)

// Standalone worker process: recompute queue consumers plus the Temporal
// worker, no HTTP surface.
func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("failed to start workers", "error", err)
		os.Exit(1)
	}
	a.Log.Info("worker running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	a.Log.Info("shutting down")
}
