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

var downloadCmd = &cobra.Command{
	Use:   "download <query>",
	Short: "Fetch papers for a query and download their files",
	Long: `Download fetches the result set for a query (served from the cache when
a fresh entry exists) and downloads the files without printing the paper
records. Use search when you want the records on stdout as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("output") {
			cfg.Download.Dir, _ = flags.GetString("output")
		}
		if flags.Changed("pdfs") {
			cfg.Download.PDFs, _ = flags.GetBool("pdfs")
		}
		if flags.Changed("tex") {
			cfg.Download.Tex, _ = flags.GetBool("tex")
		}
		maxResults, _ := flags.GetInt("max")
		complete, _ := flags.GetBool("complete")

		logger := logging.New(cfg.Logging)
		f := fetcher.New(cfg, logger)
		defer f.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out, err := f.Fetch(ctx, args[0], maxResults, fetcher.Options{Complete: complete})
		if err != nil {
			return fmt.Errorf("fetching papers: %w", err)
		}
		if len(out.Papers) == 0 {
			fmt.Fprintln(os.Stdout, "No papers found.")
			return nil
		}

		fmt.Fprintf(os.Stderr, "Downloading %d papers to %s\n", len(out.Papers), cfg.Download.Dir)
		batch := download.New(cfg.Download, cfg.HTTP, logger).DownloadAll(ctx, out.Papers)

		for id, res := range batch.PerPaper {
			if res.Err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", id, res.Err)
			}
		}
		fmt.Fprintf(os.Stdout, "Downloaded %d/%d papers\n", batch.Succeeded, len(out.Papers))
		if batch.Failed > 0 {
			return fmt.Errorf("%d papers failed to download", batch.Failed)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().IntP("max", "m", 0, "maximum number of results (0 = no limit)")
	downloadCmd.Flags().Bool("complete", false, "use the extended polling profile for complete results")
	downloadCmd.Flags().StringP("output", "o", "", "output directory for downloads")
	downloadCmd.Flags().Bool("pdfs", true, "download PDF files")
	downloadCmd.Flags().Bool("tex", false, "download TeX source files")

	rootCmd.AddCommand(downloadCmd)
}
