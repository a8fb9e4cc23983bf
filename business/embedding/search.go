package embedding

import (
	"context"
	"fmt"
	"strings"

	"vidShare/business/similarity"
	"vidShare/domain"
	"vidShare/pkg/logger"
	"vidShare/pkg/trace"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// Search ranks stored entities of the given kinds by cosine similarity to the query text.
// A query the encoder cannot embed returns no results.
func (s *Store) Search(ctx context.Context, query string, kinds []domain.ContentKind, limit int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if len(kinds) == 0 {
		kinds = domain.SearchableKinds
	}
	for _, k := range kinds {
		if !k.Searchable() {
			return nil, fmt.Errorf("unsupported search kind %q", k)
		}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	vec, _ := s.encode(ctx, query)
	if similarity.IsZero(vec) {
		logger.Debug("search_query_without_signal", "trace_id", trace.TraceIDFromContext(ctx))
		return []domain.SearchResult{}, nil
	}

	hits, err := s.repo.Nearest(ctx, vec, kinds, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}

	titles, err := s.resolveTitles(ctx, hits)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		title, ok := titles[h.Kind][h.ID]
		if !ok {
			// embedding outlived its entity
			continue
		}
		out = append(out, domain.SearchResult{
			Kind:  h.Kind,
			ID:    h.ID,
			Title: title,
			Score: h.Score,
		})
	}

	logger.Debug("search",
		"trace_id", trace.TraceIDFromContext(ctx),
		"kinds", kinds,
		"limit", limit,
		"results", len(out),
	)
	return out, nil
}

func (s *Store) resolveTitles(ctx context.Context, hits []ScoredKey) (map[domain.ContentKind]map[uint64]string, error) {
	byKind := make(map[domain.ContentKind][]uint64)
	for _, h := range hits {
		byKind[h.Kind] = append(byKind[h.Kind], h.ID)
	}

	titles := make(map[domain.ContentKind]map[uint64]string, len(byKind))
	for kind, ids := range byKind {
		m := make(map[uint64]string, len(ids))
		switch kind {
		case domain.ContentVideo:
			rows, err := s.content.VideosByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("resolve videos: %w", err)
			}
			for _, r := range rows {
				if r.Eligible() {
					m[r.ID] = r.Title
				}
			}
		case domain.ContentPost:
			rows, err := s.content.PostsByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("resolve posts: %w", err)
			}
			for _, r := range rows {
				m[r.ID] = r.Title
			}
		case domain.ContentBlog:
			rows, err := s.content.BlogsByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("resolve blogs: %w", err)
			}
			for _, r := range rows {
				m[r.ID] = r.Title
			}
		}
		titles[kind] = m
	}
	return titles, nil
}
