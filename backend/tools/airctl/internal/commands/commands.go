// Package commands implements the airctl subcommands.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"airmonitor/backend/libs/readings"
)

// ErrUsage is returned for unknown commands and bad flags. The usage text has already been printed.
var ErrUsage = errors.New("airctl: usage")

// OpenStoreFunc opens the readings store used by seed.
type OpenStoreFunc func(ctx context.Context, cfg readings.StorageConfig) (readings.Store, func() error, error)

// CLI holds the command environment.
type CLI struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *zap.Logger
	OpenStore OpenStoreFunc
	Now       func() time.Time
}

// New returns a CLI wired to the real store.
func New(stdout, stderr io.Writer, logger *zap.Logger) *CLI {
	return &CLI{
		Stdout:    stdout,
		Stderr:    stderr,
		Logger:    logger,
		OpenStore: readings.Open,
		Now:       time.Now,
	}
}

const usage = `usage: airctl <command> [flags]

commands:
  config init      write the device configuration template
  config validate  check a device configuration file
  config header    render the firmware config.h
  config import    convert an existing config.h to YAML
  seed             write simulated readings to the configured store
  hash-key         hash an ingest API key
  token            issue a dashboard token
`

// Run dispatches args (without the program name).
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.Stderr, usage)
		return ErrUsage
	}

	switch args[0] {
	case "config":
		return c.runConfig(ctx, args[1:])
	case "seed":
		return c.seed(ctx, args[1:])
	case "hash-key":
		return c.hashKey(args[1:])
	case "token":
		return c.token(args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(c.Stdout, usage)
		return nil
	default:
		fmt.Fprintf(c.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return ErrUsage
	}
}

func (c *CLI) runConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.Stderr, usage)
		return ErrUsage
	}
	switch args[0] {
	case "init":
		return c.configInit(args[1:])
	case "validate":
		return c.configValidate(args[1:])
	case "header":
		return c.configHeader(args[1:])
	case "import":
		return c.configImport(args[1:])
	default:
		fmt.Fprintf(c.Stderr, "unknown config command %q\n\n%s", args[0], usage)
		return ErrUsage
	}
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("airctl "+name, flag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrUsage
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		return ErrUsage
	}
	return nil
}
