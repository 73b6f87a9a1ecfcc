package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mchmarny/riskctl/pkg/auth"
	"github.com/mchmarny/riskctl/pkg/config"
	"github.com/mchmarny/riskctl/pkg/logging"
	"github.com/mchmarny/riskctl/pkg/model"
	"github.com/mchmarny/riskctl/pkg/risk"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "riskctl"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	configDirFlag = &urfave.StringFlag{
		Name:  "config-dir",
		Usage: "Directory holding config.yaml (optional, defaults to $HOME/.riskctl)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	modelFlag = &urfave.StringFlag{
		Name:    "model",
		Usage:   "Path to a credit model document (optional, defaults to the bundled model)",
		EnvVars: []string{"RISKCTL_MODEL"},
	}

	scorerURLFlag = &urfave.StringFlag{
		Name:    "scorer-url",
		Usage:   "URL of a remote scoring endpoint, replaces the local model when set",
		EnvVars: []string{"RISKCTL_SCORER_URL"},
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefault(logging.Options{Format: logging.FormatCLI})

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir          string
	Debug        bool
	OutputFormat string
	Config       *config.Config
	Tokens       *auth.TokenStore

	scorer risk.Scorer
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

// Scorer builds the configured scorer on first use: the remote endpoint when
// a scorer URL is set, otherwise the logistic model.
func (a *appConfig) Scorer(ctx context.Context) (risk.Scorer, error) {
	if a.scorer != nil {
		return a.scorer, nil
	}

	if url := a.Config.ScorerURL; url != "" {
		token, err := a.Tokens.Get()
		if err != nil && !errors.Is(err, auth.ErrNoToken) {
			return nil, fmt.Errorf("reading scorer token: %w", err)
		}
		r, err := model.NewRemote(ctx, url, token)
		if err != nil {
			return nil, fmt.Errorf("creating remote scorer: %w", err)
		}
		slog.Debug("using remote scorer", "url", url)
		a.scorer = r
		return r, nil
	}

	m, err := model.LoadOrDefault(a.Config.Model)
	if err != nil {
		return nil, err
	}
	slog.Debug("using logistic model", "name", m.Document().Name, "version", m.Document().Version)
	a.scorer = m
	return m, nil
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 appName,
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "Loan applicant credit risk assessment",
		Flags: []urfave.Flag{
			debugFlag,
			configDirFlag,
			formatFlag,
			modelFlag,
			scorerURLFlag,
		},
		Commands: []*urfave.Command{
			serverCmd,
			scoreCmd,
			modelCmd,
			authCmd,
		},
		Before: func(c *urfave.Context) error {
			debug := c.Bool(debugFlag.Name)
			if debug {
				logging.SetDefault(logging.Options{Level: "debug", Format: logging.FormatCLI})
			}

			dir := c.String(configDirFlag.Name)
			if dir == "" {
				d, _, err := config.GetOrCreateHomeDir(appName)
				if err != nil {
					return fmt.Errorf("resolving config dir: %w", err)
				}
				dir = d
			}

			cfg, err := config.ReadOrCreate(dir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if v := c.String(modelFlag.Name); v != "" {
				cfg.Model = v
			}
			if v := c.String(scorerURLFlag.Name); v != "" {
				cfg.ScorerURL = v
			}

			outputFormat := formatJSON
			if f := c.String(formatFlag.Name); f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				Dir:          dir,
				Debug:        debug,
				OutputFormat: outputFormat,
				Config:       cfg,
				Tokens:       auth.NewTokenStore(dir),
			}
			return nil
		},
	}
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
