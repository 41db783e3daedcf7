package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"streamapi/internal/config"
	"streamapi/internal/database"
	"streamapi/internal/domain/credential"
)

// app holds the lazily opened credential service shared by all commands.
type app struct {
	dsn     string
	service *credential.Service
}

func (a *app) credentials() (*credential.Service, error) {
	if a.service != nil {
		return a.service, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dsn := cfg.DatabaseURL
	if a.dsn != "" {
		dsn = a.dsn
	}

	db, err := database.Connect(dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := database.Migrate(db, &credential.ApplicationPassword{}); err != nil {
		return nil, err
	}

	a.service = credential.NewService(credential.NewRepository(db), cfg.BcryptCost)
	return a.service, nil
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "apppass",
		Short:         "Manage application passwords for the stream API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.dsn, "database", "", "Database DSN (defaults to DATABASE_URL)")

	rootCmd.AddCommand(newCreateCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newRevokeCommand(a))
	rootCmd.AddCommand(newPruneCommand(a))

	return rootCmd
}

func newCreateCommand(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an application password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.credentials()
			if err != nil {
				return err
			}

			p, secret, err := svc.Create(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %d\n", p.ID)
			fmt.Fprintf(out, "username: %s\n", p.Username)
			fmt.Fprintf(out, "password: %s\n", credential.ChunkPassword(secret))
			fmt.Fprintln(out, "The password is shown only once.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "stream-api", "Label for the password")

	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <username>",
		Short: "List application passwords of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.credentials()
			if err != nil {
				return err
			}

			passwords, err := svc.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED\tLAST USED\tSTATUS")
			for _, p := range passwords {
				lastUsed := "-"
				if p.LastUsedAt != nil {
					lastUsed = p.LastUsedAt.Format(time.RFC3339)
				}
				status := "active"
				if !p.Active() {
					status = "revoked"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format(time.RFC3339), lastUsed, status)
			}
			return tw.Flush()
		},
	}
}

func newRevokeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an application password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			svc, err := a.credentials()
			if err != nil {
				return err
			}
			if err := svc.Revoke(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d\n", id)
			return nil
		},
	}
}

func newPruneCommand(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete passwords revoked longer ago than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.credentials()
			if err != nil {
				return err
			}

			n, err := svc.Prune(cmd.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("prune application passwords failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d revoked password(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Retention for revoked passwords")

	return cmd
}

func main() {
	if err := newRootCommand(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
