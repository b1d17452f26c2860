// Copyright Marco Kaiser, 2025. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kaiserm99/pasa-research-fetcher/internal/config"
	"github.com/kaiserm99/pasa-research-fetcher/internal/download"
	"github.com/kaiserm99/pasa-research-fetcher/internal/fetcher"
	"github.com/kaiserm99/pasa-research-fetcher/internal/logging"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for research papers and optionally download them",
	Long: `Search submits a query to the pasa-agent.ai search agent, polls until
the result set stabilizes, and prints the normalized papers. With
--complete the extended polling profile is used: more polls, stricter
stability requirements, and no empty completions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("timeout") {
			cfg.HTTP.TimeoutMS, _ = flags.GetInt("timeout")
		}
		if flags.Changed("output") {
			cfg.Download.Dir, _ = flags.GetString("output")
		}
		if flags.Changed("pdfs") {
			cfg.Download.PDFs, _ = flags.GetBool("pdfs")
		}
		if flags.Changed("tex") {
			cfg.Download.Tex, _ = flags.GetBool("tex")
		}
		if flags.Changed("no-cache") {
			if noCache, _ := flags.GetBool("no-cache"); noCache {
				cfg.Cache.Enabled = false
			}
		}

		maxResults, _ := flags.GetInt("max")
		complete, _ := flags.GetBool("complete")
		sortByRelevance, _ := flags.GetBool("sort")
		enrich, _ := flags.GetBool("enrich")
		format, _ := flags.GetString("format")
		metadataOnly, _ := flags.GetBool("metadata-only")
		noDownload, _ := flags.GetBool("no-download")

		logger := logging.New(cfg.Logging)
		f := fetcher.New(cfg, logger)
		defer f.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out, err := f.Fetch(ctx, args[0], maxResults, fetcher.Options{
			Complete:        complete,
			SortByRelevance: sortByRelevance,
			Enrich:          enrich,
		})
		if err != nil {
			return fmt.Errorf("fetching papers: %w", err)
		}

		if !out.Complete {
			fmt.Fprintln(os.Stderr, "warning: poll budget exhausted, results may be incomplete")
		}
		if len(out.Papers) == 0 {
			fmt.Fprintln(os.Stdout, "No papers found.")
			return nil
		}

		switch format {
		case "table":
			formatTable(out, os.Stdout)
		case "json":
			if metadataOnly {
				if err := formatJSON(fetcher.MetadataOnly(out.Papers), os.Stdout); err != nil {
					return err
				}
			} else if err := formatJSON(out.Papers, os.Stdout); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown output format %q (want table or json)", format)
		}

		if noDownload || (!cfg.Download.PDFs && !cfg.Download.Tex) {
			return nil
		}

		fmt.Fprintf(os.Stderr, "Downloading papers to %s\n", cfg.Download.Dir)
		batch := download.New(cfg.Download, cfg.HTTP, logger).DownloadAll(ctx, out.Papers)
		fmt.Fprintf(os.Stderr, "Downloaded %d/%d papers\n", batch.Succeeded, len(out.Papers))
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("max", "m", 0, "maximum number of results (0 = no limit)")
	searchCmd.Flags().Bool("complete", false, "use the extended polling profile for complete results")
	searchCmd.Flags().Bool("sort", true, "sort results by relevance score")
	searchCmd.Flags().Bool("enrich", true, "enrich results with arXiv metadata")
	searchCmd.Flags().StringP("format", "f", "json", "output format (json, table)")
	searchCmd.Flags().Bool("metadata-only", false, "print flat metadata records instead of full papers")
	searchCmd.Flags().StringP("output", "o", "", "output directory for downloads")
	searchCmd.Flags().Bool("pdfs", true, "download PDF files")
	searchCmd.Flags().Bool("tex", false, "download TeX source files")
	searchCmd.Flags().Bool("no-download", false, "skip downloading files")
	searchCmd.Flags().Bool("no-cache", false, "bypass the result cache")
	searchCmd.Flags().Int("timeout", 0, "per-request timeout in milliseconds")

	rootCmd.AddCommand(searchCmd)
}
