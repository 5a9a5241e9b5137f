package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/notion-helper/internal/cmd/base"
	"github.com/hashicorp-forge/notion-helper/internal/config"
	"github.com/hashicorp-forge/notion-helper/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, args, ui, afero.NewOsFs(), os.Stdout, os.LookupEnv)
}

func run(
	ctx context.Context,
	args []string,
	ui cli.Ui,
	fsys afero.Fs,
	out io.Writer,
	lookup config.LookupFunc,
) int {
	cliName := "notion-helper"
	if len(args) > 0 {
		args = args[1:]
	}

	if len(args) == 1 &&
		(args[0] == "-version" ||
			args[0] == "-v") {
		args = []string{"version"}
	}

	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ui.Error(fmt.Sprintf("error loading .env file: %v", err))
		return 1
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:   cliName,
		Output: os.Stderr,
	})

	var cfg *config.Config
	if !isVersion(args) {
		var err error
		cfg, err = config.LoadFrom(lookup)
		if err != nil {
			ui.Error(fmt.Sprintf("error loading configuration: %v", err))
			return 1
		}
		log.SetLevel(cfg.LogLevel)
	}

	initCommands(base.NewCommand(ctx, log, ui, fsys, out, cfg))

	c := &cli.CLI{
		Name:     cliName,
		Args:     args,
		Version:  version.Version,
		Commands: Commands,
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(fmt.Sprintf("error executing CLI: %v", err))
		return 1
	}

	return exitCode
}

// isVersion reports whether args only ask for version or help output, which
// does not need any configuration.
func isVersion(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "version", "-h", "-help", "--help":
		return true
	}
	return false
}
