package version

import (
	"github.com/hashicorp-forge/notion-helper/internal/cmd/base"
	"github.com/hashicorp-forge/notion-helper/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: notion-helper version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output("notion-helper v" + version.Version)
	return 0
}
