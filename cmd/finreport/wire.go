package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/finreport-extractor/internal/batch"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/core"
	"github.com/joseph-ayodele/finreport-extractor/internal/export"
	"github.com/joseph-ayodele/finreport-extractor/internal/fallback"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm/cache"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm/ollama"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm/vertex"
	"github.com/joseph-ayodele/finreport-extractor/internal/ocr"
	"github.com/joseph-ayodele/finreport-extractor/internal/repository"
)

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildCompleter returns the configured language-model channel, or nil for provider "none".
func buildCompleter(ctx context.Context, cfg *common.Config, logger *slog.Logger, cl *closers) (llm.TextCompleter, error) {
	var (
		completer llm.TextCompleter
		model     string
	)
	switch cfg.LLM.Provider {
	case common.ProviderNone:
		return nil, nil
	case common.ProviderOllama:
		completer = ollama.NewClient(ollama.Config{
			Host:    cfg.LLM.OllamaHost,
			Model:   cfg.LLM.OllamaModel,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		model = cfg.LLM.OllamaModel
	case common.ProviderOpenAI:
		completer = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.OpenAIKey,
			BaseURL:     cfg.LLM.OpenAIBaseURL,
			Model:       cfg.LLM.OpenAIModel,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			JSONMode:    true,
		}, logger)
		model = cfg.LLM.OpenAIModel
	case common.ProviderVertex:
		vc, err := vertex.NewClient(ctx, vertex.Config{
			ProjectID:   cfg.LLM.VertexProject,
			Location:    cfg.LLM.VertexLocation,
			Model:       cfg.LLM.VertexModel,
			Temperature: cfg.LLM.Temperature,
		}, logger)
		if err != nil {
			return nil, err
		}
		cl.add(vc.Close)
		completer = vc
		model = cfg.LLM.VertexModel
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	if !cfg.Cache.Enabled {
		return completer, nil
	}
	store, err := cache.NewStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
	if err != nil {
		// run uncached
		logger.Warn("cache.unavailable", "addr", cfg.Cache.RedisAddr, "error", err)
		return completer, nil
	}
	cl.add(store.Close)
	namespace := cfg.LLM.Provider + ":" + model
	logger.Info("cache.enabled", "namespace", namespace, "ttl", cfg.Cache.TTL, "redis", cfg.Cache.RedisAddr != "")
	return cache.NewCompleter(completer, store, cfg.Cache.TTL, namespace, logger), nil
}

func buildFallback(cfg *common.Config, logger *slog.Logger) (*fallback.Extractor, error) {
	opts := []fallback.Option{fallback.WithLogger(logger)}
	if cfg.Fallback.IssuersFile != "" {
		issuers, err := fallback.LoadIssuers(cfg.Fallback.IssuersFile)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "load issuers", err)
		}
		opts = append(opts, fallback.WithIssuers(issuers))
	}
	return fallback.NewExtractor(opts...), nil
}

func buildProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger, cl *closers) (*core.Processor, error) {
	completer, err := buildCompleter(ctx, cfg, logger, cl)
	if err != nil {
		return nil, err
	}
	pattern, err := buildFallback(cfg, logger)
	if err != nil {
		return nil, err
	}
	var semantic llm.RecordExtractor
	if completer != nil {
		semantic = llm.NewSemanticExtractor(completer, cfg.LLM.Timeout, logger)
	}
	return core.NewProcessor(logger, semantic, pattern), nil
}

func buildAcquirer(cfg *common.Config, logger *slog.Logger) *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		Pdftotext:    cfg.OCR.Pdftotext,
		DisableExec:  cfg.OCR.DisableExec,
		MaxTextBytes: cfg.OCR.MaxTextBytes,
	}, logger)
}

func openDatabase(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repository.DB, error) {
	return repository.Open(ctx, repository.Config{
		DSN:             cfg.Output.DBURL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
}

// buildSink always writes the JSON result file, then the workbook and database when configured.
func buildSink(ctx context.Context, cfg *common.Config, logger *slog.Logger, cl *closers) (batch.Sink, error) {
	sinks := export.MultiSink{export.NewJSONSink(cfg.Output.JSONPath, logger)}
	if cfg.Output.XLSXPath != "" {
		sinks = append(sinks, export.NewXLSXSink(cfg.Output.XLSXPath, logger))
	}
	if cfg.Output.DBURL != "" {
		db, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodePersistence, "open database", err)
		}
		cl.add(db.Close)
		repo := repository.NewResultRepository(db, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, common.NewAppError(common.CodePersistence, "ensure schema", err)
		}
		sinks = append(sinks, &repository.Sink{Repo: repo})
	}
	return sinks, nil
}
