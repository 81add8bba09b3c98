package main

import (
	"context"
	"errors"

	"github.com/custodia-labs/casesync/internal/adapters/driven/ai"
	"github.com/custodia-labs/casesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/casesync/internal/adapters/driven/extract"
	"github.com/custodia-labs/casesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/casesync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/casesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/core/services"
	"github.com/custodia-labs/casesync/internal/logger"
)

// stores groups the persistence ports of one backend.
type stores struct {
	docs      driven.DocumentStore
	index     driven.IndexStore
	sources   driven.LinkedSourceStore
	scheduler driven.SchedulerStore
	close     func() error
}

func openStores(opts cli.Options) (*stores, error) {
	if opts.Ephemeral {
		return &stores{
			docs:      memory.NewDocumentStore(),
			index:     memory.NewIndexStore(),
			sources:   memory.NewLinkedSourceStore(),
			scheduler: memory.NewSchedulerStore(),
			close:     func() error { return nil },
		}, nil
	}

	db, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("storage: %s", db.Path())
	return &stores{
		docs:      db.DocumentStore(),
		index:     db.IndexStore(),
		sources:   db.LinkedSourceStore(),
		scheduler: db.SchedulerStore(),
		close:     db.Close,
	}, nil
}

// build wires the services for one process.
func build(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
	config, err := file.NewConfigStore(opts.DataDir)
	if err != nil {
		return nil, err
	}
	settings, err := file.LoadSettings(config)
	if err != nil {
		return nil, err
	}

	st, err := openStores(opts)
	if err != nil {
		return nil, err
	}

	// A missing provider is not fatal: documents are stored and picked up
	// for indexing once the provider comes back.
	var provider driven.EmbeddingProvider
	if settings.Embedding.IsConfigured() {
		provider, err = ai.CreateAndValidateEmbeddingProvider(ctx, &settings.Embedding)
		if err != nil {
			logger.Warn("%v; documents will not be indexed", err)
		}
	} else {
		logger.Warn("embedding provider %s is not configured; documents will not be indexed", settings.Embedding.Provider)
	}

	embedder := services.NewEmbeddingClient(provider, settings.Indexing)
	pipeline, err := services.NewIndexingService(st.index, st.docs, embedder, settings.Indexing)
	if err != nil {
		return nil, errors.Join(err, closeAll(provider, st))
	}

	var indexer driving.Indexer = pipeline
	var queue *services.IndexQueue
	if opts.Background {
		queue = services.NewIndexQueue(pipeline, 0)
		indexer = queue
	}

	extractor := extract.New()
	reconciler := services.NewReconciler(st.docs, st.sources, extractor, indexer)

	return &cli.Runtime{
		Settings:   settings,
		DataDir:    opts.DataDir,
		Ephemeral:  opts.Ephemeral,
		Config:     config,
		Sources:    st.sources,
		Indexing:   pipeline,
		Reconciler: reconciler,
		Links:      services.NewLinkService(st.sources, st.docs, indexer, reconciler),
		Documents:  services.NewDocumentService(st.docs, extractor, indexer),
		Scheduler:  services.NewScheduler(settings.Reconciler, st.scheduler, reconciler),
		Queue:      queue,
		Close: func() error {
			if queue != nil {
				queue.Close()
			}
			return closeAll(provider, st)
		},
	}, nil
}

func closeAll(provider driven.EmbeddingProvider, st *stores) error {
	var errs []error
	if provider != nil {
		errs = append(errs, provider.Close())
	}
	errs = append(errs, st.close())
	return errors.Join(errs...)
}
