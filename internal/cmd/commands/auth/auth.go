package auth

import (
	"context"
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp-forge/notion-helper/internal/cmd/base"
	"github.com/hashicorp-forge/notion-helper/pkg/oauth"
)

type Command struct {
	*base.Command

	flagTimeout time.Duration
	flagAddr    string
	flagBrowser bool

	// Overridden in tests.
	listener net.Listener
	tokenURL string
	openURL  func(url string) error
}

func (c *Command) Synopsis() string {
	return "Authorize the integration and store the access token"
}

func (c *Command) Help() string {
	return `Usage: notion-helper auth [options]

  Opens the Notion consent page in a browser and waits for the OAuth
  redirect on a local listener. The authorization code is exchanged for an
  access token, which is written to the token file (NOTION_TOKEN_FILE).

  Requires OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET and OAUTH_AUTH_URL.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("auth", flag.ContinueOnError))

	f.DurationVar(
		&c.flagTimeout, "timeout", 5*time.Minute,
		"How long to wait for the OAuth redirect.",
	)
	f.StringVar(
		&c.flagAddr, "addr", oauth.DefaultListenAddr,
		"Address of the local redirect listener. Must match the registered redirect URI.",
	)
	f.BoolVar(
		&c.flagBrowser, "browser", true,
		"Open the consent page in the default browser. When false the URL is printed.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log.Named("auth"), c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagTimeout <= 0 {
		ui.Error("timeout must be positive")
		return 1
	}

	cfg := c.Config
	if err := cfg.OAuth.Validate(); err != nil {
		ui.Error(fmt.Sprintf("error validating OAuth configuration: %v", err))
		return 1
	}

	exchanger, err := oauth.NewExchanger(&oauth.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     c.tokenURL,
		RedirectURL:  "http://" + c.flagAddr + "/redirect",
	}, nil)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating token exchanger: %v", err))
		return 1
	}

	store := oauth.NewTokenStore(c.Fs, cfg.TokenFile)
	server := oauth.NewServer(oauth.ServerOptions{
		Exchanger: exchanger,
		Store:     store,
		Logger:    logger,
	})

	openURL := c.openURL
	if !c.flagBrowser {
		openURL = func(url string) error {
			ui.Output(fmt.Sprintf("Visit the following URL to authorize the integration:\n\n  %s\n", url))
			return nil
		}
	}

	flow := &oauth.Flow{
		Addr:     c.flagAddr,
		Listener: c.listener,
		AuthURL:  cfg.OAuth.AuthURL,
		Server:   server,
		Logger:   logger,
		OpenURL:  openURL,
	}

	ctx, cancel := context.WithTimeout(c.Context(), c.flagTimeout)
	defer cancel()

	if err := flow.Run(ctx); err != nil {
		ui.Error(fmt.Sprintf("error authorizing: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("Access token written to %s", store.Path()))
	return 0
}
