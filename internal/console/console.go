// Package console implements the coordinator's interactive operator prompt.
//
// It is a thin wrapper over the registry: progress, add <file>, clear, exit.
// Anything else is silently ignored.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattjoyce/parbreak/internal/config"
	"github.com/mattjoyce/parbreak/internal/events"
	"github.com/mattjoyce/parbreak/internal/job"
	"github.com/mattjoyce/parbreak/internal/log"
)

// Console reads operator commands line by line.
type Console struct {
	registry *job.Registry
	hub      *events.Hub
	shutdown func()

	in  io.Reader
	out io.Writer
}

// New creates a console on stdin/stdout. shutdown is invoked by the exit
// command.
func New(registry *job.Registry, hub *events.Hub, shutdown func()) *Console {
	return &Console{
		registry: registry,
		hub:      hub,
		shutdown: shutdown,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// Run processes commands until exit, EOF or ctx cancellation. Reading stdin
// has no cancellation point, so a cancelled ctx only takes effect at the
// next line; the process exiting covers the rest.
func (c *Console) Run(ctx context.Context) {
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, ">>> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "progress":
			c.progress()
		case "add":
			c.add(parts[1:])
		case "clear":
			c.clear()
		case "exit":
			c.shutdown()
			return
		}
	}
}

func (c *Console) progress() {
	stats := c.registry.Snapshot()
	fmt.Fprintf(c.out, "Progress: %d left\n", stats.Remaining)
}

func (c *Console) add(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: add <file>")
		return
	}

	commands, err := config.ReadCommandFile(args[0])
	if err != nil {
		fmt.Fprintln(c.out, "Unable to load file")
		return
	}

	fmt.Fprintf(c.out, "Loading %d commands...\n", len(commands))
	c.registry.Load(commands)
	c.hub.Publish(events.TypeJobsLoaded, events.LoadEvent{Count: len(commands), Source: args[0]})

	if fp, err := config.FingerprintFile(args[0]); err == nil {
		log.WithComponent("console").Info("loaded command file", "path", args[0], "blake3", fp)
	}
}

func (c *Console) clear() {
	dropped := c.registry.ClearPending()
	fmt.Fprintf(c.out, "Cleared %d pending jobs\n", dropped)
	c.hub.Publish(events.TypeQueueCleared, events.ClearEvent{Dropped: dropped})
}
