// Package ttsearch provides extraction, columnar storage, and analytics
// for short-video metadata.
//
// The system has three layers:
//
// 1. Extraction: an orchestrator paginates through a pluggable page
// source under a shared rate limiter and circuit breaker, retries
// transient failures with exponential backoff, deduplicates by video
// ID, and validates every record before it is kept. Runs that stop
// early still return whatever they collected.
//
// 2. Storage: validated records are written to a compressed columnar
// container format with dictionary-encoded strings, per-column
// compression presets (lz4 for speed, zstd for ratio), row-group
// min/max statistics for predicate pushdown, optional hive-style
// partitioning, and atomic file replacement. Datasets export to JSON,
// CSV, xlsx, and Apache Parquet.
//
// 3. Analytics: overview statistics, metric rankings for videos and
// authors, case-insensitive hashtag frequencies, TF-IDF + k-means
// content clustering, and percentile-based virality scoring.
//
// The internal/pipeline package ties the layers together behind one
// facade, and cmd/ttsearch exposes them as a CLI.
//
// # Quick Start
//
//	p := pipeline.New(source, config.Default())
//
//	result, err := p.Extract(ctx, extract.Query{
//	    Type:    extract.QueryTypeSearch,
//	    Keyword: "street food",
//	    Limit:   200,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path, err := p.Store(result.Items, "street-food")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	top, err := p.Rank("street-food", analytics.MetricLikes, 10)
package ttsearch
