// Package main is the entry point for the dollop CLI.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/dollop/pkg/api"
	"github.com/lemonberrylabs/dollop/pkg/lang"
	"github.com/lemonberrylabs/dollop/pkg/runtime"
	"github.com/lemonberrylabs/dollop/pkg/store"
	"github.com/lemonberrylabs/dollop/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "dollop [script.dlp]",
	Short: "The dollop scripting language",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE:  repl,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dollop script service",
	RunE:  serve,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("dollop version {{.Version}}\n")
	rootCmd.SilenceUsage = true

	rootCmd.Flags().StringP("command", "c", "", "Evaluate source from the argument instead of a file")
	rootCmd.Flags().Bool("dump", false, "Parse only and print the canonical form of each statement")
	rootCmd.Flags().Int("max-steps", 0, "Evaluation step budget (default 100000)")
	rootCmd.Flags().Bool("profile", false, "Write a CPU profile to the current directory")

	replCmd.Flags().Int("max-steps", 0, "Evaluation step budget per line (default 100000)")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env DOLLOP_PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env DOLLOP_HOST)")
	serveCmd.Flags().String("scripts-dir", "", "Directory of .dlp/.yaml scripts to load at startup (env DOLLOP_SCRIPTS_DIR)")
	serveCmd.Flags().Int("max-steps", 0, "Per-run step budget (default 100000, env DOLLOP_MAX_STEPS)")

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	command, _ := cmd.Flags().GetString("command")

	var source, file string
	switch {
	case command != "":
		source = command
	case len(args) == 1:
		file = args[0]
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		source = string(data)
	default:
		return cmd.Help()
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		tokens, err := lang.Tokenize(source)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			fmt.Println(tok.String())
		}
		stmts, err := lang.Parse(tokens)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			fmt.Println(stmt.String())
		}
		return nil
	}

	if prof, _ := cmd.Flags().GetBool("profile"); prof {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	in := runtime.New(runtime.WithMaxSteps(maxSteps))
	result, err := in.Run(source)
	if err != nil {
		if file != "" {
			return fmt.Errorf("%s:%v", file, err)
		}
		return err
	}
	fmt.Println(result.String())
	return nil
}

func repl(cmd *cobra.Command, args []string) error {
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	in := runtime.New(runtime.WithMaxSteps(maxSteps))

	fmt.Printf("dollop %s (type exit to quit)\n", version)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("dollop> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		result, err := in.Run(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(result.String())
	}
}

func serve(cmd *cobra.Command, args []string) error {
	port := envOrDefault("DOLLOP_PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("DOLLOP_HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	scriptsDir := os.Getenv("DOLLOP_SCRIPTS_DIR")
	if v, _ := cmd.Flags().GetString("scripts-dir"); v != "" {
		scriptsDir = v
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
	if v, _ := cmd.Flags().GetInt("max-steps"); v != 0 {
		maxSteps = v
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
		log.Printf("API-only mode (no --scripts-dir specified)")
	}
	return server.Listen(addr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
