package cmd

import (
	"fmt"
	"io"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/config"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/extract"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/learning"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/lifecycle"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/match"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/repository"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/store"
)

// services bundles everything the subcommands work with.
type services struct {
	store      store.TabularStore
	drafts     *repository.DraftRepository
	dictionary *repository.DictionaryRepository
	engine     *match.Engine
	learning   *learning.Service
	lifecycle  *lifecycle.Lifecycle
	extractor  *extract.Client
	closer     io.Closer
}

// openStore opens the configured tabular store backend.
func openStore(cfg *config.Config) (store.TabularStore, io.Closer, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		st, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, st, nil
	case "bolt":
		st, err := store.OpenBolt(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return st, st, nil
	case "memory":
		return store.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildServices wires repositories and services on top of the configured
// store.
func buildServices(cfg *config.Config) (*services, error) {
	st, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	drafts := repository.NewDraftRepository(st)
	dictionary := repository.NewDictionaryRepository(st)
	engine := match.NewEngine(dictionary, cfg.Match.FuzzyThreshold)
	learner := learning.NewService(dictionary, drafts, engine)

	var extractor *extract.Client
	if cfg.Extractor.URL != "" {
		extractor = extract.NewClient(cfg.Extractor.URL, cfg.Extractor.APIKey)
	}

	return &services{
		store:      st,
		drafts:     drafts,
		dictionary: dictionary,
		engine:     engine,
		learning:   learner,
		lifecycle:  lifecycle.New(drafts, engine, learner, cfg.Draft.AllowReopen),
		extractor:  extractor,
		closer:     closer,
	}, nil
}

// Close releases the underlying store.
func (s *services) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
