package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"github.com/spf13/cobra"
)

// NewResultsCmd groups the back-office operations on stored results.
func NewResultsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect and manage stored assessment results",
	}
	cmd.AddCommand(newResultsListCmd(configPath))
	cmd.AddCommand(newResultsDeleteCmd(configPath))
	cmd.AddCommand(newResultsSyncCmd(configPath))
	return cmd
}

func newResultsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResults(cmd.Context(), *configPath, func(_ *backends, results *app.ResultStore) error {
				return printResults(cmd.OutOrStdout(), results)
			})
		},
	}
}

func newResultsDeleteCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResults(cmd.Context(), *configPath, func(_ *backends, results *app.ResultStore) error {
				confirm := func() bool {
					if yes {
						return true
					}
					return promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Supprimer définitivement ce résultat ?")
				}
				if err := results.Delete(cmd.Context(), args[0], confirm); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newResultsSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Resend a stored result to the configured webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResults(cmd.Context(), *configPath, func(b *backends, results *app.ResultStore) error {
				stored, err := results.Get(args[0])
				if err != nil {
					return err
				}
				settings, err := b.settingsStore(cmd.Context(), slog.Default())
				if err != nil {
					return err
				}
				if settings.WebhookURL() == "" {
					return fmt.Errorf("no webhook endpoint configured")
				}
				tracker := app.NewSyncTracker(nil)
				if err := b.syncClient(settings, slog.Default()).Retry(cmd.Context(), stored, tracker); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", stored.ID, tracker.State())
				return nil
			})
		},
	}
}

func withResults(ctx context.Context, configPath string, fn func(*backends, *app.ResultStore) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	results, err := b.resultStore(ctx, slog.Default())
	if err != nil {
		return err
	}
	return fn(b, results)
}

func printResults(w io.Writer, results *app.ResultStore) error {
	list := results.List()
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tEMAIL\tSCORE\tSTATUS")
	for _, r := range list {
		status := "ÉCHEC"
		if r.Passed() {
			status = "ADMIS"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n", r.ID, r.Date, r.Email, r.Score, r.TotalQuestions, status)
	}
	return tw.Flush()
}

func promptConfirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "o", "oui":
		return true
	}
	return false
}
