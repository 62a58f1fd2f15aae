// Package api exposes the review/approval boundary of the draft ledger over
// HTTP. It owns no business rules; every handler delegates to the lifecycle,
// learning and repository packages.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/extract"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/learning"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/lifecycle"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/match"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/repository"
)

// Extractor asks the external extraction service for a document's structured
// fields. Satisfied by extract.Client.
type Extractor interface {
	Extract(ctx context.Context, fileID string) (*extract.Result, error)
}

type contextKey string

const contextKeyActor contextKey = "actor"

// Deps bundles the services the API serves. Extractor is optional; without
// one the from-extraction endpoint reports the service as unavailable.
type Deps struct {
	Lifecycle  *lifecycle.Lifecycle
	Learning   *learning.Service
	Engine     *match.Engine
	Drafts     *repository.DraftRepository
	Dictionary *repository.DictionaryRepository
	Extractor  Extractor
}

// NewRouter assembles the HTTP API.
func NewRouter(deps Deps) http.Handler {
	drafts := &DraftsHandler{deps: deps}
	dictionary := &DictionaryHandler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(actorMiddleware)

	r.Route("/api/1", func(r chi.Router) {
		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", drafts.List)
			r.Post("/", drafts.Create)
			r.Post("/from-extraction", drafts.CreateFromExtraction)
			r.Get("/{id}", drafts.Get)
			r.Delete("/{id}", drafts.Delete)
			r.Post("/{id}/select", drafts.SelectSuggestion)
			r.Post("/{id}/entry", drafts.SetCustomEntry)
			r.Post("/{id}/approve", drafts.Approve)
			r.Post("/{id}/export", drafts.Export)
			r.Post("/{id}/reopen", drafts.Reopen)
			r.Get("/{id}/history", drafts.History)
			r.Get("/{id}/versions/{version}", drafts.SnapshotAtVersion)
		})

		r.Route("/dictionary", func(r chi.Router) {
			r.Get("/", dictionary.List)
			r.Post("/", dictionary.Create)
			r.Post("/corrections", dictionary.Correct)
			r.Get("/{id}", dictionary.Get)
			r.Post("/{id}/aliases", dictionary.AddAliases)
			r.Get("/{id}/history", dictionary.History)
		})

		r.Get("/match", dictionary.Match)
	})

	return r
}

// actorMiddleware resolves the reviewer identity from the X-Actor header.
// Mutating endpoints reject requests without one.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get("X-Actor")
		if actor == "" && r.Method != http.MethodGet {
			writeJSONError(w, http.StatusBadRequest, "missing_actor", "X-Actor header is required for mutations")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(r *http.Request) string {
	actor, _ := r.Context().Value(contextKeyActor).(string)
	return actor
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
