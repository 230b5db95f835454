package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/config"
)

// AppBuilder connects to the configured backends.
type AppBuilder func(ctx context.Context) (*config.App, error)

// NewRootCommand creates the admin CLI. Output goes to out.
func NewRootCommand(build AppBuilder, out io.Writer) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "Lost-and-found admin CLI",
		Long: `Maintenance tool for the lost-and-found service.

Connects to the stores named by DATABASE_URL and STORAGE_URL (a .env file in
the current directory is loaded first).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetLogLoggerLevel(level)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newListCommand(build))
	rootCmd.AddCommand(newDeleteCommand(build))
	rootCmd.AddCommand(newReconcileCommand(build))

	return rootCmd
}

// withApp builds the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, build AppBuilder, fn func(ctx context.Context, app *config.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := build(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			slog.Warn("Failed to close backends", "error", err)
		}
	}()

	return fn(ctx, app)
}

func newListCommand(build AppBuilder) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, build, func(ctx context.Context, app *config.App) error {
				items, err := app.Service.ListItems(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), items)
				}
				printItems(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDeleteCommand(build AppBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item and its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, build, func(ctx context.Context, app *config.App) error {
				if err := app.Service.DeleteItem(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[0])
				return nil
			})
		},
	}
}

// errEphemeralItems is returned when a reconcile would compare persistent
// images against the empty in-memory item store.
var errEphemeralItems = errors.New("refusing to remove images: DATABASE_URL is the in-memory store, so every image looks unreferenced (set DATABASE_URL, use --dry-run or pass --force)")

// checkReconcileTarget rejects an in-memory item store paired with
// filesystem or S3 storage.
func checkReconcileTarget(cfg *config.ServerConfig) error {
	if cfg == nil {
		return nil
	}
	db, err := cfg.Database()
	if err != nil {
		return err
	}
	storage, err := cfg.Storage()
	if err != nil {
		return err
	}
	if db.Kind == config.DatabaseMemory && storage.Kind != config.StorageMemory {
		return errEphemeralItems
	}
	return nil
}

func newReconcileCommand(build AppBuilder) *cobra.Command {
	var (
		dryRun bool
		force  bool
		grace  time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove unreferenced images and report items whose image is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, build, func(ctx context.Context, app *config.App) error {
				if !dryRun && !force {
					if err := checkReconcileTarget(app.Config); err != nil {
						return err
					}
				}
				report, err := app.Service.ReconcileAssets(ctx, lostfound.ReconcileOptions{
					DryRun:      dryRun,
					GracePeriod: grace,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				printReport(cmd.OutOrStdout(), report, dryRun)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report orphaned images without removing them")
	cmd.Flags().BoolVar(&force, "force", false, "Remove images even when the item store is in memory")
	cmd.Flags().DurationVar(&grace, "grace", lostfound.DefaultReconcileGracePeriod, "Skip images younger than this")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printItems(out io.Writer, items []*lostfound.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tNAME\tIMAGE\tCREATED\n")
	for _, item := range items {
		image := "-"
		if item.HasImage() {
			image = *item.Image
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.ID.Hex(),
			item.Title,
			item.Name,
			image,
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d\n", len(items))
}

func printReport(out io.Writer, report *lostfound.ReconcileReport, dryRun bool) {
	fmt.Fprintf(out, "Checked %d items and %d images\n", report.ItemsChecked, report.AssetsChecked)

	verb := "Removed"
	names := report.Removed
	if dryRun {
		verb = "Would remove"
		names = report.Orphaned
	}
	fmt.Fprintf(out, "%s %d orphaned images\n", verb, len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}

	if len(report.Dangling) > 0 {
		fmt.Fprintf(out, "%d items reference missing images\n", len(report.Dangling))
		for _, d := range report.Dangling {
			fmt.Fprintf(out, "  %s -> %s\n", d.ItemID, d.Image)
		}
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
