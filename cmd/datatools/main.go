// datatools: news aggregation, file classification and embedding generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deusflow/datatools/internal/app"
	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/metrics"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "datatools",
	Short:         "News aggregation, file classification and embedding tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			os.Setenv("DEBUG", "true")
			cfg.Debug = true
		}
		logger.Init()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(embedCmd)
}

// outPath returns the --out flag or the default file under the output dir.
func outPath(cmd *cobra.Command, name string) string {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return out
	}
	return filepath.Join(cfg.OutputDir, name)
}

func inputDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return app.DefaultInputDir
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetch headlines from NewsAPI and RSS feeds, dedupe them and enrich the first pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			cfg.OutputDir = out
		}

		res, err := app.RunNews(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		logger.Info("News run finished",
			"items", len(res.Items),
			"enriched", len(res.Enriched),
			"failed_stages", len(res.Cascade.Failed()))
		logger.Debug("Run stats", "stats", metrics.Global.GetStats())
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [dir]",
	Short: "Decide which files under dir may be uploaded",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.RunClassify(cfg, inputDir(args), outPath(cmd, app.ClassificationFile))
		return err
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed [dir]",
	Short: "Generate embeddings for every file under dir",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := app.RunEmbed(cmd.Context(), cfg, inputDir(args), outPath(cmd, app.EmbeddingsFile))
		if err != nil {
			return err
		}
		logger.Debug("Run stats", "stats", metrics.Global.GetStats(), "stopped_early", res.Stopped)
		return nil
	},
}

func init() {
	newsCmd.Flags().String("out", "", "output directory (default: $OUTPUT_DIR or data)")
	classifyCmd.Flags().String("out", "", "CSV report path (default: data/file_classification.csv)")
	embedCmd.Flags().String("out", "", "JSONL output path (default: data/embeddings.jsonl)")
}
