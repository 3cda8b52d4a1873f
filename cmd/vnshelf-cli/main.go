package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/vnshelf/internal/catalog"
	"github.com/vrsandeep/vnshelf/internal/config"
	"github.com/vrsandeep/vnshelf/internal/core"
	"github.com/vrsandeep/vnshelf/internal/models"
)

var (
	verbose    bool
	configPath string
	app        *core.App
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vnshelf-cli",
	Short:   "Maintenance commands for a vnshelf catalog",
	Version: core.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetOutput(os.Stderr)
			log.SetFlags(0)
		}

		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		app, err = core.NewWithConfig(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	indexCmd.AddCommand(indexStartCmd, indexStatusCmd, indexWorkCmd)

	exportCmd.Flags().StringP("format", "f", catalog.FormatJSON, "Output format (json or yaml)")
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	importCmd.Flags().StringP("mode", "m", models.ImportModeMerge, "Import mode (merge or replace)")
	importCmd.Flags().StringP("format", "f", "", "Input format (json or yaml, default from file extension)")
	indexWorkCmd.Flags().Bool("follow", false, "Keep polling for tasks until interrupted")

	rootCmd.AddCommand(rebuildCmd, statsCmd, indexCmd, exportCmd, importCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute the list and statistics from the stored entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.Catalog().Rebuild(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Rebuilt list with %d entries\n", len(list.Items))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := app.Catalog().Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Entries:             %d\n", stats.Total)
		fmt.Printf("Total play time:     %s\n", formatMinutes(stats.TotalPlayTimeMinutes))
		fmt.Printf("Avg VNDB rating:     %.2f\n", stats.AvgRating)
		fmt.Printf("Avg personal rating: %.2f\n", stats.AvgPersonalRating)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the metadata refresh job",
}

var indexStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Queue a metadata refresh for every entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := app.Indexer().Start(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Started job %s for %d entries\n", status.JobID, status.Total)
		return nil
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the last refresh job",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := app.Indexer().Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Status:    %s\n", status.Status)
		if status.JobID != "" {
			fmt.Printf("Job:       %s\n", status.JobID)
		}
		fmt.Printf("Progress:  %d/%d (%.0f%%)\n", status.Processed, status.Total, status.Progress())
		if len(status.Failed) > 0 {
			fmt.Printf("Failed:    %s\n", strings.Join(status.Failed, ", "))
		}
		if status.Error != "" {
			fmt.Printf("Error:     %s\n", status.Error)
		}
		return nil
	},
}

var indexWorkCmd = &cobra.Command{
	Use:   "work",
	Short: "Process queued index tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		if !follow {
			n, err := app.DrainIndexQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d tasks\n", n)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		pool := app.StartIndexWorkers(ctx)
		log.Println("Index workers running, press Ctrl+C to stop")
		pool.Wait()
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		doc, err := app.Catalog().Export(cmd.Context())
		if err != nil {
			return err
		}
		data, err := catalog.EncodeDocument(doc, format)
		if err != nil {
			return err
		}
		if out == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", len(doc.Entries), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import entries from an export file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = formatFromPath(args[0])
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}
		var doc models.ExportDocument
		if err := catalog.DecodeDocument(data, format, &doc); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()
		count, err := app.Catalog().Import(ctx, doc.Entries, mode)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d entries (%s)\n", count, mode)
		return nil
	},
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return catalog.FormatYAML
	default:
		return catalog.FormatJSON
	}
}

func formatMinutes(minutes int) string {
	if minutes == 0 {
		return "0h"
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
