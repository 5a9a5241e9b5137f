package read

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/notion-helper/internal/cmd/base"
	"github.com/hashicorp-forge/notion-helper/pkg/kb"
	"github.com/hashicorp-forge/notion-helper/pkg/notion"
	"github.com/hashicorp-forge/notion-helper/pkg/oauth"
	"github.com/hashicorp-forge/notion-helper/pkg/report"
)

type Command struct {
	*base.Command

	flagOutput    string
	flagTokenFile string
	flagNoColor   bool
}

func (c *Command) Synopsis() string {
	return "Analyze the knowledge base and write a snapshot"
}

func (c *Command) Help() string {
	return `Usage: notion-helper read [options]

  Reads every row of the database under the knowledge base page (KB_ID),
  prints the most active day, authors and skill areas together with the
  article growth since the split date, and writes a JSON snapshot.

  Run "notion-helper auth" first to obtain an access token.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("read", flag.ContinueOnError))

	output, tokenFile := kb.DefaultSnapshotFile, oauth.DefaultTokenFile
	if c.Config != nil {
		output, tokenFile = c.Config.SnapshotFile, c.Config.TokenFile
	}

	f.StringVar(
		&c.flagOutput, "output", output,
		"Path of the JSON snapshot.",
	)
	f.StringVar(
		&c.flagTokenFile, "token-file", tokenFile,
		"Path of the token file written by the auth command.",
	)
	f.BoolVar(
		&c.flagNoColor, "no-color", false,
		"Disable colored output.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log.Named("read"), c.UI
	cfg := c.Config

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	tokenSource, err := oauth.NewTokenStore(c.Fs, c.flagTokenFile).TokenSource()
	if err != nil {
		ui.Error(fmt.Sprintf("error loading access token: %v", err))
		return 1
	}

	client, err := notion.NewClient(&notion.Config{
		BaseURL:     cfg.Notion.BaseURL,
		Version:     cfg.Notion.Version,
		Timeout:     cfg.Notion.Timeout,
		TokenSource: tokenSource,
		Logger:      logger,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("error creating Notion client: %v", err))
		return 1
	}

	analyzer := kb.NewAnalyzer(client, kb.AnalyzerOptions{Logger: logger})
	result, err := analyzer.Run(c.Context(), cfg.KnowledgeBaseID)
	if err != nil {
		ui.Error(fmt.Sprintf("error analyzing knowledge base: %v", err))
		return 1
	}

	if err := report.NewPrinter(c.Out, !c.flagNoColor).Print(result); err != nil {
		ui.Error(fmt.Sprintf("error printing report: %v", err))
		return 1
	}

	if err := kb.WriteSnapshot(c.Fs, c.flagOutput, result.Snapshot()); err != nil {
		ui.Error(fmt.Sprintf("error writing snapshot: %v", err))
		return 1
	}
	logger.Info("snapshot written", "path", c.flagOutput)

	return 0
}
