// Package cli provides one-shot subcommands over the seller inbox.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/logging"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var configFile string
	var logLevel string

	cmd := &cobra.Command{
		Use:           "revdesk",
		Short:         "Seller inbox for the Reverb marketplace",
		Long:          "revdesk syncs marketplace conversations and sends replies from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	app := &appState{configFile: &configFile, logLevel: &logLevel}

	cmd.AddCommand(
		newInboxCmd(app),
		newSendCmd(app),
		newListingsCmd(app),
		newOrdersCmd(app),
		newOffersCmd(app),
		newNotificationsCmd(app),
		newWhoamiCmd(app),
	)

	return cmd
}

// appState lazily builds the configuration and API client shared by the
// subcommands. The token lives in the client only and is discarded when
// the process exits.
type appState struct {
	configFile *string
	logLevel   *string

	cfg    *config.Config
	client *reverb.Client
}

func (a *appState) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	loader := config.NewLoader()
	if *a.configFile != "" {
		loader.SetConfigFile(*a.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.EnableCaller = cfg.Logging.EnableCaller
	if *a.logLevel != "" {
		logCfg.Level = *a.logLevel
	}
	logging.Init(logCfg)

	a.cfg = cfg
	return cfg, nil
}

// apiClient returns the authenticated client, prompting for a token when
// the environment does not provide one.
func (a *appState) apiClient() (*reverb.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	token := config.Token()
	if token == "" {
		token, err = promptToken()
		if err != nil {
			return nil, err
		}
	}
	if token == "" {
		return nil, fmt.Errorf("no API token: set %s or enter one at the prompt", config.TokenEnvVar)
	}

	a.client = reverb.New(reverb.Config{
		BaseURL:         cfg.API.BaseURL,
		Token:           token,
		Timeout:         cfg.API.Timeout,
		MaxAttempts:     cfg.API.MaxAttempts,
		RetryBackoff:    cfg.API.RetryBackoff,
		CacheTTL:        cfg.API.CacheTTL,
		DisplayCurrency: cfg.API.DisplayCurrency,
	})
	return a.client, nil
}

// promptToken reads the token from the terminal without echoing it.
func promptToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(os.Stderr, "Reverb API token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
