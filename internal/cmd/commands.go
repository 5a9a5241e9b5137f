package cmd

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/notion-helper/internal/cmd/base"
	"github.com/hashicorp-forge/notion-helper/internal/cmd/commands/auth"
	"github.com/hashicorp-forge/notion-helper/internal/cmd/commands/read"
	"github.com/hashicorp-forge/notion-helper/internal/cmd/commands/version"
)

// Commands is the mapping of all available notion-helper commands.
var Commands map[string]cli.CommandFactory

func initCommands(b *base.Command) {
	Commands = map[string]cli.CommandFactory{
		"auth": func() (cli.Command, error) {
			return &auth.Command{Command: b}, nil
		},
		"read": func() (cli.Command, error) {
			return &read.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
