package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"airmonitor/backend/libs/device"
)

// ErrPlaceholders is returned by config validate -strict when template values remain.
var ErrPlaceholders = errors.New("airctl: configuration still contains template placeholders")

func (c *CLI) configInit(args []string) error {
	fs := c.flagSet("config init")
	out := fs.String("o", "config.yaml", "output file")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := parse(fs, args); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := device.WriteYAML(&buf, device.Template()); err != nil {
		return err
	}
	if err := writeOutput(*out, buf.Bytes(), *force, c.Stdout); err != nil {
		return err
	}
	if *out != "-" {
		c.Logger.Info("wrote configuration template", zap.String("path", *out))
	}
	return nil
}

func (c *CLI) configValidate(args []string) error {
	fs := c.flagSet("config validate")
	in := fs.String("f", "config.yaml", "configuration file")
	strict := fs.Bool("strict", false, "treat template placeholders as errors")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := os.Stat(*in); err != nil {
		return fmt.Errorf("airctl: %w", err)
	}

	cfg, err := device.Load(*in)
	if err != nil {
		return err
	}
	if err := device.WriteYAML(c.Stdout, cfg.Redacted()); err != nil {
		return err
	}

	if keys := cfg.Placeholders(); len(keys) > 0 {
		if *strict {
			return fmt.Errorf("%w: %s", ErrPlaceholders, strings.Join(keys, ", "))
		}
		c.Logger.Warn("configuration still contains template placeholders", zap.Strings("keys", keys))
	}
	c.Logger.Info("configuration is valid", zap.Object("device", cfg))
	return nil
}

func (c *CLI) configHeader(args []string) error {
	fs := c.flagSet("config header")
	in := fs.String("f", "config.yaml", "configuration file")
	out := fs.String("o", "config.h", "output header, - for stdout")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := os.Stat(*in); err != nil {
		return fmt.Errorf("airctl: %w", err)
	}

	cfg, err := device.Load(*in)
	if err != nil {
		return err
	}
	if keys := cfg.Placeholders(); len(keys) > 0 {
		c.Logger.Warn("rendering header with template placeholders", zap.Strings("keys", keys))
	}

	var buf bytes.Buffer
	if err := device.WriteHeader(&buf, cfg); err != nil {
		return err
	}
	// The header is a build artifact and is always regenerated.
	if err := writeOutput(*out, buf.Bytes(), true, c.Stdout); err != nil {
		return err
	}
	if *out != "-" {
		c.Logger.Info("wrote firmware header", zap.String("path", *out), zap.Object("device", cfg))
	}
	return nil
}

func (c *CLI) configImport(args []string) error {
	fs := c.flagSet("config import")
	in := fs.String("i", "config.h", "existing firmware header")
	out := fs.String("o", "config.yaml", "output file, - for stdout")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := parse(fs, args); err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("airctl: %w", err)
	}
	defer f.Close()

	cfg, err := device.ParseHeader(f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		c.Logger.Warn("imported header does not validate", zap.Error(err))
	}

	var buf bytes.Buffer
	if err := device.WriteYAML(&buf, cfg); err != nil {
		return err
	}
	if err := writeOutput(*out, buf.Bytes(), *force, c.Stdout); err != nil {
		return err
	}
	if *out != "-" {
		c.Logger.Info("imported firmware header", zap.String("from", *in), zap.String("path", *out))
	}
	return nil
}

// writeOutput writes data to path, or to stdout for "-". Files hold secrets and are created 0600.
func writeOutput(path string, data []byte, force bool, stdout io.Writer) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("airctl: %s already exists, use -force to overwrite", path)
		}
		return fmt.Errorf("airctl: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("airctl: write %s: %w", path, err)
	}
	return f.Close()
}
