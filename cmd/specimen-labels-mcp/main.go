package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/specimen-labels/internal/labeler"
	"github.com/ironsheep/specimen-labels/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("specimen-labels-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("specimen-labels-mcp - MCP server for numbering specimens on photographs")
			fmt.Println()
			fmt.Println("Usage: specimen-labels-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SPECIMEN_LABELS_LOG_LEVEL=debug    Copy the debug log to stderr")
			fmt.Println("  SPECIMEN_LABELS_DATA_DIR=<dir>     Where parameters, debug log and history live")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := labeler.Config{}
	if os.Getenv("SPECIMEN_LABELS_LOG_LEVEL") == "debug" {
		log.Printf("Specimen Labels MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		cfg.Mirror = os.Stderr
	}

	svc, err := labeler.Open(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(svc)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("Server error: %v", err)
		svc.Close()
		os.Exit(1)
	}
}
