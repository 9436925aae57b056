// Command migrate inspects and changes the database schema.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"vividplate/internal/config"
	"vividplate/internal/database"
	"vividplate/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type withDB func(ctx context.Context, cfg *config.Config, db *gorm.DB, args []string) error

// dbCommand opens the configured database for the duration of fn.
func dbCommand(fn withDB) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		middleware.Configure(cfg.Env, cfg.LogLevel)

		db, err := database.Open(cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
		return fn(cmd.Context(), cfg, db, args)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "VividPlate schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: dbCommand(func(ctx context.Context, _ *config.Config, db *gorm.DB, _ []string) error {
			m, err := database.NewMigrator(db)
			if err != nil {
				return err
			}
			n, err := m.Up(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Run GORM AutoMigrate for every model",
		Args:  cobra.NoArgs,
		RunE: dbCommand(func(ctx context.Context, cfg *config.Config, db *gorm.DB, _ []string) error {
			cfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(ctx, db, cfg); err != nil {
				return err
			}
			fmt.Println("auto-migrate complete")
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema plan and migration ledger",
		Args:  cobra.NoArgs,
		RunE: dbCommand(func(ctx context.Context, cfg *config.Config, db *gorm.DB, _ []string) error {
			status, err := database.GetSchemaStatus(ctx, db, cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "mode\t%s\nenv\t%s\ndriver\t%s\nsql\t%t\nauto\t%t\n",
				status.Mode, status.Env, status.Driver, status.SQL, status.AutoMigrate)
			for _, l := range status.Applied {
				fmt.Fprintf(w, "applied\t%06d_%s\t%s\n", l.Version, l.Name, l.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, m := range status.Pending {
				fmt.Fprintf(w, "pending\t%s\n", m.ID())
			}
			return w.Flush()
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "down <version>",
		Short: "Revert one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: dbCommand(func(ctx context.Context, _ *config.Config, db *gorm.DB, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			m, err := database.NewMigrator(db)
			if err != nil {
				return err
			}
			if err := m.Down(ctx, version); err != nil {
				return err
			}
			fmt.Printf("reverted %06d\n", version)
			return nil
		}),
	})

	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
