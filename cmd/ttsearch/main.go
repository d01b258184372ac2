package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Brashkie/tt-search/internal/pipeline"
	"github.com/Brashkie/tt-search/pkg/analytics"
	"github.com/Brashkie/tt-search/pkg/config"
	"github.com/Brashkie/tt-search/pkg/extract"
	"github.com/Brashkie/tt-search/pkg/logger"
	"github.com/Brashkie/tt-search/pkg/store"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var configFile string
	var logLevel string

	root := &cobra.Command{
		Use:   "ttsearch",
		Short: "ttsearch - short-video extraction, storage, and analytics",
		Long: `ttsearch extracts short-video metadata from captured page payloads,
stores it in a compressed columnar format, and runs analytics over the
resulting datasets.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	loadConfig := func() (*config.Config, error) {
		cfg := config.Default()
		if configFile != "" {
			if err := config.Load(configFile, cfg); err != nil {
				return nil, err
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if err := logger.Init(logger.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			Encoding:    cfg.Logging.Encoding,
		}); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ttsearch v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// extract command
	var pagesFile, keyword, username, dataset, sortBy string
	var queryType string
	var limit int
	var timeout time.Duration

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract video records from captured page payloads",
		Long: `Extract runs a query against a file of captured page payloads (a JSON
array of raw result pages) and stores the validated records as a dataset.

Example:
  ttsearch extract --pages captured.json --type search --keyword "street food" --dataset street-food`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := newFilePageSource(pagesFile)
			if err != nil {
				return err
			}
			p := pipeline.New(source, cfg)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			query := extract.Query{
				Type:     extract.QueryType(queryType),
				Keyword:  keyword,
				Username: username,
				Limit:    limit,
				SortBy:   sortBy,
			}
			path, result, err := p.Run(ctx, query, dataset)
			if err != nil && len(result.Items) == 0 {
				return err
			}
			if err != nil {
				logger.Warn("run stopped early, partial results stored", zap.Error(err))
			}
			fmt.Printf("Extracted %d records (%d pages, %d duplicates, %d dropped) in %s\n",
				len(result.Items), result.Meta.PagesFetched,
				result.Meta.Duplicates, result.Meta.Dropped,
				result.Meta.Duration.Round(time.Millisecond))
			fmt.Printf("Dataset written to %s\n", path)
			return nil
		},
	}
	extractCmd.Flags().StringVar(&pagesFile, "pages", "", "Path to captured page payloads JSON file (required)")
	extractCmd.Flags().StringVar(&queryType, "type", "search", "Query type (search, user, trending)")
	extractCmd.Flags().StringVar(&keyword, "keyword", "", "Search keyword (for --type search)")
	extractCmd.Flags().StringVar(&username, "user", "", "Author username (for --type user)")
	extractCmd.Flags().StringVar(&sortBy, "sort-by", "", "Sort hint passed to the source")
	extractCmd.Flags().IntVar(&limit, "limit", 0, "Maximum records to collect (0 = configured default)")
	extractCmd.Flags().StringVar(&dataset, "dataset", "", "Dataset name to write (required)")
	extractCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Run timeout")
	_ = extractCmd.MarkFlagRequired("pages")
	_ = extractCmd.MarkFlagRequired("dataset")
	root.AddCommand(extractCmd)

	// analyze command
	root.AddCommand(&cobra.Command{
		Use:   "analyze <dataset>",
		Short: "Print overview statistics for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stats, err := pipeline.New(nil, cfg).Analyze(args[0])
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	})

	// top command
	var metric string
	var topLimit int
	topCmd := &cobra.Command{
		Use:   "top <dataset>",
		Short: "Rank videos in a dataset by a metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			top, err := pipeline.New(nil, cfg).Rank(args[0], analytics.Metric(metric), topLimit)
			if err != nil {
				return err
			}
			for i, r := range top {
				fmt.Printf("%2d. %s @%s likes=%d views=%d %q\n",
					i+1, r.ID, r.Author, r.Stats.Likes, r.Stats.Views, truncate(r.Description, 60))
			}
			return nil
		},
	}
	topCmd.Flags().StringVar(&metric, "metric", "likes", "Ranking metric (likes, comments, shares, views)")
	topCmd.Flags().IntVar(&topLimit, "limit", 0, "Number of results (0 = configured default)")
	root.AddCommand(topCmd)

	// authors command
	authorsCmd := &cobra.Command{
		Use:   "authors <dataset>",
		Short: "Rank authors in a dataset by aggregate metric totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			authors, err := pipeline.New(nil, cfg).Authors(args[0], analytics.Metric(metric), topLimit)
			if err != nil {
				return err
			}
			for i, a := range authors {
				fmt.Printf("%2d. @%s videos=%d total=%d\n", i+1, a.Author, a.VideoCount, a.Total)
			}
			return nil
		},
	}
	authorsCmd.Flags().StringVar(&metric, "metric", "likes", "Ranking metric (likes, comments, shares, views)")
	authorsCmd.Flags().IntVar(&topLimit, "limit", 0, "Number of results (0 = configured default)")
	root.AddCommand(authorsCmd)

	// hashtags command
	var tagLimit int
	hashtagsCmd := &cobra.Command{
		Use:   "hashtags <dataset>",
		Short: "Show hashtag frequencies for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tags, err := pipeline.New(nil, cfg).Hashtags(args[0], tagLimit)
			if err != nil {
				return err
			}
			for i, tag := range tags {
				fmt.Printf("%2d. #%s (%d)\n", i+1, tag.Tag, tag.Count)
			}
			return nil
		},
	}
	hashtagsCmd.Flags().IntVar(&tagLimit, "limit", 0, "Number of results (0 = configured default)")
	root.AddCommand(hashtagsCmd)

	// cluster command
	var nClusters int
	clusterCmd := &cobra.Command{
		Use:   "cluster <dataset>",
		Short: "Group a dataset's videos by description content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			result, err := pipeline.New(nil, cfg).Cluster(args[0], nClusters)
			if err != nil {
				return err
			}
			return printJSON(result.Summaries)
		},
	}
	clusterCmd.Flags().IntVar(&nClusters, "n", 0, "Cluster count (0 = configured default)")
	root.AddCommand(clusterCmd)

	// predict command
	root.AddCommand(&cobra.Command{
		Use:   "predict <dataset>",
		Short: "Score a dataset's videos for virality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			result, err := pipeline.New(nil, cfg).Predict(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Threshold: %.2f  Viral: %d  Non-viral: %d\n",
				result.Threshold, result.Viral.Count, result.NonViral.Count)
			return printJSON(result.Predictions)
		},
	})

	// report command
	var reportOut string
	reportCmd := &cobra.Command{
		Use:   "report <dataset>",
		Short: "Write a combined JSON analytics report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := pipeline.New(nil, cfg).Report(args[0], reportOut)
			if err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", out)
			return nil
		},
	}
	reportCmd.Flags().StringVar(&reportOut, "out", "report.json", "Output path")
	root.AddCommand(reportCmd)

	// export command
	var format, exportOut string
	exportCmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Convert a dataset to an interchange format",
		Long: `Export converts a stored dataset to json, csv, spreadsheet (xlsx), or
parquet. The output path gets the extension matching the chosen format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := pipeline.New(nil, cfg).ExportTo(args[0], store.Format(format), exportOut)
			if err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", out)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "Output format (json, csv, spreadsheet, parquet)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output path (required)")
	_ = exportCmd.MarkFlagRequired("out")
	root.AddCommand(exportCmd)

	// stats command
	root.AddCommand(&cobra.Command{
		Use:   "stats <dataset>",
		Short: "Show a dataset's on-disk layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ds, err := pipeline.New(nil, cfg).Stats(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Dataset:    %s\n", ds.Dataset)
			fmt.Printf("Files:      %d\n", ds.Files)
			fmt.Printf("Rows:       %d\n", ds.Rows)
			fmt.Printf("Columns:    %d\n", ds.Columns)
			fmt.Printf("Row groups: %d\n", ds.RowGroups)
			fmt.Printf("Size:       %s\n", formatBytes(ds.SizeBytes))
			fmt.Printf("Codec:      %s\n", ds.Codec)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// filePageSource serves pages from a captured payload file: a JSON
// array of raw result pages. Cursors are "p1", "p2", ... so the
// orchestrator paginates through the capture in order.
type filePageSource struct {
	pages []extract.Page
}

func newFilePageSource(path string) (*filePageSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeConfig, "cannot read pages file")
	}
	var pages []extract.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "malformed pages file")
	}
	return &filePageSource{pages: pages}, nil
}

func (f *filePageSource) FetchPage(ctx context.Context, query extract.Query, cursor string) (*extract.Page, error) {
	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor[1:])
		if err != nil {
			return nil, tterrors.Newf(tterrors.ErrorTypeValidation, "bad cursor %q", cursor)
		}
		idx = n
	}
	if idx >= len(f.pages) {
		return &extract.Page{}, nil
	}
	page := f.pages[idx]
	if idx+1 < len(f.pages) {
		page.HasMore = true
		page.NextCursor = fmt.Sprintf("p%d", idx+1)
	} else {
		page.HasMore = false
		page.NextCursor = ""
	}
	return &page, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
