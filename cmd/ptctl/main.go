package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"papertrade-backend/internal/app"
	"papertrade-backend/internal/application/leaderboard"
	"papertrade-backend/internal/config"
	"papertrade-backend/internal/infrastructure/database"
	"papertrade-backend/internal/pkg/logging"

	"github.com/spf13/cobra"
)

const commandTimeout = 2 * time.Minute

// opener connects to the configured stores and returns a release func.
// Tests swap it for an in-memory one.
type opener func(ctx context.Context) (*app.Services, *config.Config, func(), error)

func openFromEnv(ctx context.Context) (*app.Services, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logging.Setup(cfg.LogLevel, true)
	svc, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return svc, cfg, func() { _ = svc.Close() }, nil
}

func main() {
	if err := newRootCmd(openFromEnv).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "ptctl",
		Short:        "Paper trading backend operator tool",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(open),
		newQuickPicsCmd(open),
		newSetAdminCmd(open),
		newLeaderboardCmd(open),
	)
	return root
}

func withServices(cmd *cobra.Command, open opener, fn func(ctx context.Context, svc *app.Services, cfg *config.Config) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	svc, cfg, release, err := open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, svc, cfg)
}

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, open, func(ctx context.Context, svc *app.Services, cfg *config.Config) error {
				if err := database.AutoMigrate(svc.DB.WithContext(ctx)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(database.Models()))
				return nil
			})
		},
	}
}

func newQuickPicsCmd(open opener) *cobra.Command {
	qp := &cobra.Command{
		Use:   "quickpics",
		Short: "Quick Pics competitions",
	}
	var date string
	run := &cobra.Command{
		Use:   "run",
		Short: "Generate the Quick Pics for a day (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, open, func(ctx context.Context, svc *app.Services, cfg *config.Config) error {
				day := time.Now().In(svc.Location)
				if date != "" {
					d, err := time.ParseInLocation("2006-01-02", date, svc.Location)
					if err != nil {
						return fmt.Errorf("invalid --date: %w", err)
					}
					day = d
				}
				created, err := svc.QuickPics.Generate(ctx, day)
				out := cmd.OutOrStdout()
				for _, c := range created {
					fmt.Fprintf(out, "%s  %s\n", c.Code, c.StartDate.In(svc.Location).Format(time.RFC3339))
				}
				fmt.Fprintf(out, "created %d competitions for %s\n", len(created), day.Format("2006-01-02"))
				return err
			})
		},
	}
	run.Flags().StringVar(&date, "date", "", "day to generate, YYYY-MM-DD in the Quick Pics timezone")
	qp.AddCommand(run)
	return qp
}

func newSetAdminCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "set-admin <username>",
		Short: "Grant admin rights using the configured ADMIN_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, open, func(ctx context.Context, svc *app.Services, cfg *config.Config) error {
				if err := svc.Users.SetAdmin(ctx, cfg.AdminSecret, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
				return nil
			})
		},
	}
}

func newLeaderboardCmd(open opener) *cobra.Command {
	var team bool
	cmd := &cobra.Command{
		Use:   "leaderboard <competition-code>",
		Short: "Print a competition leaderboard with live prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, open, func(ctx context.Context, svc *app.Services, cfg *config.Config) error {
				scope := leaderboard.ScopeIndividual
				if team {
					scope = leaderboard.ScopeTeam
				}
				entries, err := svc.Leaderboard.Build(ctx, args[0], scope)
				if err != nil {
					return err
				}
				printLeaderboard(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&team, "team", false, "rank teams instead of individual members")
	return cmd
}

func printLeaderboard(w io.Writer, entries []leaderboard.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tTOTAL VALUE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, e.Name, e.TotalValue.StringFixed(2))
	}
	tw.Flush()
}
