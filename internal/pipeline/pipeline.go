// Package pipeline ties the extraction, storage, and analytics layers
// together behind one facade. A Pipeline owns a shared orchestrator
// (so every run draws from the same rate limiter and breaker) and a
// dataset root, and exposes the operations the CLI maps to commands.
//
// # Basic Usage
//
//	p := pipeline.New(fetcher, config.Default())
//
//	result, err := p.Extract(ctx, extract.Query{
//	    Type:    extract.QueryTypeSearch,
//	    Keyword: "street food",
//	    Limit:   200,
//	})
//	if err != nil {
//	    return err
//	}
//
//	path, err := p.Store(result.Items, "street-food")
//	if err != nil {
//	    return err
//	}
//
//	stats, err := p.Analyze(path)
package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Brashkie/tt-search/pkg/analytics"
	"github.com/Brashkie/tt-search/pkg/clients"
	"github.com/Brashkie/tt-search/pkg/config"
	"github.com/Brashkie/tt-search/pkg/extract"
	"github.com/Brashkie/tt-search/pkg/logger"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/store"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// Pipeline is the top-level coordinator. It is safe for concurrent
// use; the underlying store serializes writers per path.
type Pipeline struct {
	cfg  *config.Config
	orch *extract.Orchestrator
	log  *zap.Logger
}

// New builds a pipeline over the given page source. A nil cfg uses
// defaults.
func New(fetcher extract.PageFetcher, cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	orch := extract.NewOrchestrator(fetcher, extract.Config{
		RequestsPerSecond: cfg.Extract.RequestsPerSecond,
		Burst:             cfg.Extract.Burst,
		AdaptiveRate:      cfg.Extract.AdaptiveRate,
		MaxPages:          cfg.Extract.MaxPages,
		Retry: &extract.RetryPolicy{
			MaxAttempts:     cfg.Extract.RetryAttempts,
			InitialDelay:    cfg.Extract.RetryDelay,
			MaxDelay:        cfg.Extract.RetryMaxDelay,
			Multiplier:      cfg.Extract.RetryMultiplier,
			RandomizeFactor: 0.1,
		},
		Breaker: &clients.CircuitBreakerConfig{
			FailureThreshold: cfg.Extract.BreakerFailureThreshold,
			SuccessThreshold: cfg.Extract.BreakerSuccessThreshold,
			Timeout:          cfg.Extract.BreakerTimeout,
		},
	})
	return &Pipeline{
		cfg:  cfg,
		orch: orch,
		log:  logger.Get().With(zap.String("component", "pipeline")),
	}
}

// Config exposes the active configuration.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Extract runs a query against the page source. Queries without a
// limit get the configured default. The returned result may carry
// items alongside an error when a run fails partway.
func (p *Pipeline) Extract(ctx context.Context, query extract.Query) (*extract.RunResult, error) {
	if query.Limit <= 0 {
		query.Limit = p.cfg.Extract.DefaultLimit
	}
	result := p.orch.Run(ctx, query)
	return result, result.Error
}

// Store writes video records as a dataset under the configured base
// path. The dataset name becomes a directory when partitioning is on,
// a single container file otherwise. Returns the dataset path.
func (p *Pipeline) Store(records []*models.VideoRecord, dataset string) (string, error) {
	if dataset == "" {
		return "", tterrors.New(tterrors.ErrorTypeValidation, "dataset name is empty")
	}
	dest := p.datasetPath(dataset)
	opts := store.Options{
		Compression:  store.CompressionOption(p.cfg.Storage.Compression),
		PartitionBy:  p.cfg.Storage.PartitionBy,
		RowGroupSize: p.cfg.Storage.RowGroupSize,
	}
	files, err := store.WriteVideos(records, dest, opts)
	if err != nil {
		return "", err
	}
	p.log.Info("dataset written",
		zap.String("dataset", dataset),
		zap.Int("records", len(records)),
		zap.Int("files", len(files)))
	return dest, nil
}

// Load reads video records back from a dataset, applying optional
// column filters so row groups outside the range are never
// decompressed.
func (p *Pipeline) Load(dataset string, filters ...store.Filter) ([]*models.VideoRecord, error) {
	return store.ReadVideos(p.datasetPath(dataset), filters...)
}

// ExportTo converts a dataset to an interchange format and returns
// the extension-corrected output path.
func (p *Pipeline) ExportTo(dataset string, format store.Format, outPath string) (string, error) {
	return store.Export(p.datasetPath(dataset), format, outPath)
}

// Stats summarizes a dataset's on-disk layout.
func (p *Pipeline) Stats(dataset string) (*store.DatasetStats, error) {
	return store.Stats(p.datasetPath(dataset))
}

// Analyze computes overview statistics for a dataset.
func (p *Pipeline) Analyze(dataset string) (*analytics.OverviewStats, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return nil, err
	}
	return analytics.Overview(records), nil
}

// Rank returns the top videos in a dataset by the given metric. A
// non-positive limit uses the configured default.
func (p *Pipeline) Rank(dataset string, metric analytics.Metric, limit int) ([]*models.VideoRecord, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return nil, err
	}
	return analytics.TopVideos(records, metric, p.limitOr(limit))
}

// Authors ranks dataset authors by their aggregate metric totals.
func (p *Pipeline) Authors(dataset string, metric analytics.Metric, limit int) ([]analytics.AuthorStats, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return nil, err
	}
	return analytics.TopAuthors(records, metric, p.limitOr(limit))
}

// Hashtags returns hashtag frequencies for a dataset.
func (p *Pipeline) Hashtags(dataset string, limit int) ([]analytics.HashtagStat, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return nil, err
	}
	return analytics.TopHashtags(records, p.limitOr(limit)), nil
}

// Cluster groups a dataset's videos by description content. A
// non-positive n uses the configured cluster count.
func (p *Pipeline) Cluster(dataset string, n int) (*analytics.ClusterResult, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = p.cfg.Analytics.Clusters
	}
	return analytics.ClusterContent(records, n, p.cfg.Analytics.MaxFeatures)
}

// Predict scores a dataset's videos for virality.
func (p *Pipeline) Predict(dataset string) (*analytics.ViralityResult, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return nil, err
	}
	return analytics.PredictVirality(records), nil
}

// Report writes a combined JSON analytics report for a dataset and
// returns the output path.
func (p *Pipeline) Report(dataset string, outPath string) (string, error) {
	records, err := p.Load(dataset)
	if err != nil {
		return "", err
	}
	return analytics.WriteReport(records, outPath)
}

// Run extracts a query and stores whatever it yields in one step.
// Partial extraction results are still persisted; the extraction
// error is returned alongside the dataset path so callers can decide.
func (p *Pipeline) Run(ctx context.Context, query extract.Query, dataset string) (string, *extract.RunResult, error) {
	result, err := p.Extract(ctx, query)
	if len(result.Items) == 0 {
		return "", result, err
	}
	path, storeErr := p.Store(result.Items, dataset)
	if storeErr != nil {
		return "", result, storeErr
	}
	return path, result, err
}

// datasetPath resolves a dataset name against the configured base
// path. Absolute names and explicit relative paths pass through so
// existing datasets can be addressed directly.
func (p *Pipeline) datasetPath(dataset string) string {
	if filepath.IsAbs(dataset) || len(dataset) > 1 && dataset[0] == '.' {
		return dataset
	}
	base := p.cfg.Storage.BasePath
	if base == "" {
		return dataset
	}
	if p.cfg.Storage.PartitionBy == "" {
		return filepath.Join(base, dataset+store.FileExt)
	}
	return filepath.Join(base, dataset)
}

func (p *Pipeline) limitOr(limit int) int {
	if limit > 0 {
		return limit
	}
	return p.cfg.Analytics.TopLimit
}
