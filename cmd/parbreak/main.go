package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/parbreak/internal/api"
	"github.com/mattjoyce/parbreak/internal/config"
	"github.com/mattjoyce/parbreak/internal/console"
	"github.com/mattjoyce/parbreak/internal/coordinator"
	"github.com/mattjoyce/parbreak/internal/events"
	"github.com/mattjoyce/parbreak/internal/job"
	"github.com/mattjoyce/parbreak/internal/log"
	"github.com/mattjoyce/parbreak/internal/tui/watch"
	"github.com/mattjoyce/parbreak/internal/worker"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "work":
		os.Exit(runWork(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("parbreak version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`parbreak - distribute shell commands to remote workers over TCP

Usage:
  parbreak <command> [flags]

Commands:
  serve     Run the coordinator: accept workers, hand out jobs
  work      Run a worker: connect to a coordinator and execute jobs
  watch     Live dashboard following a coordinator's status API
  version   Show version information
  help      Show this help message

Serve flags:
  -config FILE    YAML config file (optional; defaults apply without it)
  -jobs FILE      command list to load at startup, one command per line
  -listen ADDR    TCP listen address (default :55000)
  -log-level LVL  DEBUG, INFO, WARN or ERROR

Work flags:
  -connect ADDR   coordinator address (default 127.0.0.1:55000)
  -log-level LVL  DEBUG, INFO, WARN or ERROR

Watch flags:
  -api URL        coordinator status API (default http://127.0.0.1:8600)
  -api-key KEY    bearer token if the API requires one

The serve console accepts: progress, add <file>, clear, exit.
`)
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	jobsFile := fs.String("jobs", "", "command list to load at startup")
	listen := fs.String("listen", "", "TCP listen address")
	logLevel := fs.String("log-level", "", "log level")
	_ = fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// Flags win over file values.
	if *listen != "" {
		cfg.Service.Listen = *listen
	}
	if *logLevel != "" {
		cfg.Service.LogLevel = *logLevel
	}
	if *jobsFile != "" {
		cfg.Service.JobsFile = *jobsFile
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("serve")

	registry := job.NewRegistry(job.WithTakeBackoff(cfg.Service.TakeBackoff))
	hub := events.NewHub(256)

	if cfg.Service.JobsFile != "" {
		commands, err := config.ReadCommandFile(cfg.Service.JobsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Loading %d commands...\n", len(commands))
		registry.Load(commands)
		hub.Publish(events.TypeJobsLoaded, events.LoadEvent{Count: len(commands), Source: cfg.Service.JobsFile})

		if fp, err := config.FingerprintFile(cfg.Service.JobsFile); err == nil {
			logger.Info("loaded command file", "path", cfg.Service.JobsFile, "blake3", fp)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := coordinator.New(coordinator.Config{
		Listen:     cfg.Service.Listen,
		ReadBuffer: cfg.Service.ReadBuffer,
	}, registry, hub)

	if err := server.Listen(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Serving on: %s\n", server.Addr())

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.APIKey,
		}, registry, hub)
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("api server failed", "error", err)
			}
		}()
	}

	// The exit console command and SIGINT share one cancel path.
	go console.New(registry, hub, cancel).Run(ctx)

	if err := server.Start(ctx); err != nil {
		logger.Error("coordinator failed", "error", err)
		return 1
	}
	fmt.Println("Closing down...")
	return 0
}

func runWork(args []string) int {
	fs := flag.NewFlagSet("work", flag.ExitOnError)
	connect := fs.String("connect", "127.0.0.1:55000", "coordinator address")
	logLevel := fs.String("log-level", "INFO", "log level")
	_ = fs.Parse(args)

	log.Setup(*logLevel)

	addr := *connect
	if _, _, err := net.SplitHostPort(addr); err != nil {
		// Bare hostname: assume the default port.
		addr = net.JoinHostPort(addr, "55000")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := worker.New(addr).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println("Done.")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8600", "coordinator status API URL")
	apiKey := fs.String("api-key", "", "bearer token")
	_ = fs.Parse(args)

	p := tea.NewProgram(watch.New(*apiURL, *apiKey))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
