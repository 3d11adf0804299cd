// Package main is the entry point for the dollop script service daemon.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lemonberrylabs/dollop/pkg/api"
	"github.com/lemonberrylabs/dollop/pkg/store"
	"github.com/lemonberrylabs/dollop/web"
)

func main() {
	portFlag := flag.Int("port", 0, "HTTP server port (default 8787, env DOLLOP_PORT)")
	hostFlag := flag.String("host", "", "Bind address (default 0.0.0.0, env DOLLOP_HOST)")
	scriptsDirFlag := flag.String("scripts-dir", "", "Directory of .dlp/.yaml scripts to load at startup (env DOLLOP_SCRIPTS_DIR)")
	maxStepsFlag := flag.Int("max-steps", 0, "Per-run step budget (default 100000, env DOLLOP_MAX_STEPS)")
	flag.Parse()

	port := envOrDefault("DOLLOP_PORT", "8787")
	if *portFlag != 0 {
		port = fmt.Sprintf("%d", *portFlag)
	}

	host := envOrDefault("DOLLOP_HOST", "0.0.0.0")
	if *hostFlag != "" {
		host = *hostFlag
	}

	scriptsDir := os.Getenv("DOLLOP_SCRIPTS_DIR")
	if *scriptsDirFlag != "" {
		scriptsDir = *scriptsDirFlag
	}

	maxSteps := 0
	if v := os.Getenv("DOLLOP_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Warning: ignoring DOLLOP_MAX_STEPS=%q: %v", v, err)
		} else {
			maxSteps = n
		}
	}
	if *maxStepsFlag != 0 {
		maxSteps = *maxStepsFlag
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	s := store.New()
	server := api.New(s, maxSteps)

	// Load scripts from directory if specified
	if scriptsDir != "" {
		log.Printf("Loading scripts directory: %s", scriptsDir)
		if err := server.LoadDir(scriptsDir); err != nil {
			log.Printf("Warning: failed to load scripts directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(s)
		ui.Register(server.App())
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("dollop script service listening on %s", addr)
	if scriptsDir != "" {
		log.Printf("Scripts directory: %s", scriptsDir)
	} else {
		log.Printf("API-only mode (no -scripts-dir specified)")
	}
	if err := server.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
