package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/webhook"
	"github.com/spf13/cobra"
)

// NewWebhookCmd manages the spreadsheet webhook used for result sync.
func NewWebhookCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Show, change or test the results webhook",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active webhook URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, *configPath, func(_ *backends, settings *app.SettingsStore) error {
				url := settings.WebhookURL()
				if url == "" {
					url = "(disabled)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Save a webhook URL; an empty string disables sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, *configPath, func(_ *backends, settings *app.SettingsStore) error {
				return settings.Save(cmd.Context(), domain.Settings{WebhookURL: strings.TrimSpace(args[0])})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a TEST_CONNECTION payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, *configPath, func(b *backends, settings *app.SettingsStore) error {
				tracker := app.NewSyncTracker(nil)
				err := b.syncClient(settings, slog.Default()).Probe(cmd.Context(), tracker)
				if errors.Is(err, domain.ErrEndpointNotConfigured) {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "probe: %s\n", tracker.State())
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "script",
		Short: "Print the Apps Script receiver to deploy on the spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), webhook.ReceiverScript)
			return err
		},
	})
	return cmd
}

func withSettings(cmd *cobra.Command, configPath string, fn func(*backends, *app.SettingsStore) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	b, err := openBackends(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	settings, err := b.settingsStore(cmd.Context(), slog.Default())
	if err != nil {
		return err
	}
	return fn(b, settings)
}
