package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/riskctl/pkg/model"
	"github.com/urfave/cli/v2"
)

const modelFileMode = 0600

var (
	modelURLFlag = &cli.StringFlag{
		Name:     "url",
		Usage:    "URL of the model document to download",
		Required: true,
	}

	modelOutFlag = &cli.StringFlag{
		Name:     "out",
		Usage:    "File to write the validated model document to",
		Required: true,
	}

	modelCmd = &cli.Command{
		Name:    "model",
		Aliases: []string{"m"},
		Usage:   "Credit model operations",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective model document",
				Action: cmdModelShow,
			},
			{
				Name:   "pull",
				Usage:  "Download and validate a model document",
				Action: cmdModelPull,
				Flags: []cli.Flag{
					modelURLFlag,
					modelOutFlag,
				},
			},
		},
	}
)

func cmdModelShow(c *cli.Context) error {
	cfg := getConfig(c)
	if cfg.Config.ScorerURL != "" {
		return fmt.Errorf("scoring is delegated to %s, no local model to show", cfg.Config.ScorerURL)
	}

	m, err := model.LoadOrDefault(cfg.Config.Model)
	if err != nil {
		return err
	}
	return encode(c.App.Writer, cfg.OutputFormat, m.Document())
}

func cmdModelPull(c *cli.Context) error {
	url := c.String(modelURLFlag.Name)
	out := c.String(modelOutFlag.Name)

	d, b, err := model.Pull(c.Context, url)
	if err != nil {
		return fmt.Errorf("pulling model: %w", err)
	}
	if err := os.WriteFile(out, b, modelFileMode); err != nil {
		return fmt.Errorf("writing model file %s: %w", out, err)
	}

	slog.Info("model saved", "name", d.Name, "version", d.Version, "path", out)
	return nil
}
