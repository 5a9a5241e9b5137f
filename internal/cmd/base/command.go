package base

import (
	"context"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/notion-helper/internal/config"
)

// Command holds the dependencies shared by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// Ctx is canceled when the process receives an interrupt.
	Ctx context.Context

	// Fs is where token and snapshot files are read and written.
	Fs afero.Fs

	// Out receives reports.
	Out io.Writer

	Config *config.Config
}

// NewCommand returns a Command with the given dependencies.
func NewCommand(
	ctx context.Context,
	log hclog.Logger,
	ui cli.Ui,
	fs afero.Fs,
	out io.Writer,
	cfg *config.Config,
) *Command {
	return &Command{
		Log:    log,
		UI:     ui,
		Ctx:    ctx,
		Fs:     fs,
		Out:    out,
		Config: cfg,
	}
}

// Context returns the process context, or a background context when unset.
func (c *Command) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
