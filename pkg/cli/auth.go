package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var (
	tokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "Remote scorer access token (read from stdin when omitted)",
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Manage the remote scorer access token",
		Subcommands: []*cli.Command{
			{
				Name:   "set",
				Usage:  "Store the token in the OS keychain",
				Action: cmdAuthSet,
				Flags: []cli.Flag{
					tokenFlag,
				},
			},
			{
				Name:   "clear",
				Usage:  "Remove the stored token",
				Action: cmdAuthClear,
			},
		},
	}
)

func cmdAuthSet(c *cli.Context) error {
	token := c.String(tokenFlag.Name)
	if token == "" {
		fmt.Fprint(c.App.Writer, "Paste the scorer token and hit enter:\n>")
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading user input: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	if err := getConfig(c).Tokens.Save(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(c.App.Writer, "Token saved")
	return nil
}

func cmdAuthClear(c *cli.Context) error {
	if err := getConfig(c).Tokens.Delete(); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Token removed")
	return nil
}
