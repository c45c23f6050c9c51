package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// TitleBoost is added to the vector score when the query appears verbatim
// in an event title.
const TitleBoost = 0.25

// Hit is one ranked event.
type Hit struct {
	Event model.Event `json:"event"`
	Score float64     `json:"score"`
}

// Searcher ranks a fixed set of events against free-text queries.
type Searcher struct {
	embedder Embedder
	index    *VectorIndex
	events   map[string]model.Event

	// Embedded counts the events that had to be embedded while building,
	// as opposed to reused from a cached index.
	Embedded int
}

// NewSearcher embeds events, reusing vectors from cached whose content hash
// still matches. cached may be nil.
func NewSearcher(ctx context.Context, events []model.Event, embedder Embedder, cached *VectorIndex) (*Searcher, error) {
	if embedder == nil {
		embedder = NewHashEmbedder(0)
	}
	s := &Searcher{
		embedder: embedder,
		index:    NewVectorIndex(embedder.Dim()),
		events:   make(map[string]model.Event, len(events)),
	}
	if cached != nil && cached.Dim != embedder.Dim() {
		cached = nil
	}

	docs := DocumentsFromEvents(events)
	var (
		pending     []model.Event
		pendingDocs []string
	)
	for _, e := range events {
		doc, ok := docs[e.ID]
		if !ok {
			continue
		}
		s.events[e.ID] = e
		hash := ComputeContentHash(doc)
		if cached != nil {
			if entry, ok := cached.Lookup(e.ID); ok && entry.Hash == hash {
				if err := s.index.Put(e, hash, entry.Vector); err != nil {
					return nil, err
				}
				continue
			}
		}
		pending = append(pending, e)
		pendingDocs = append(pendingDocs, doc)
	}

	if len(pendingDocs) > 0 {
		vecs, err := embedder.Embed(ctx, pendingDocs)
		if err != nil {
			return nil, fmt.Errorf("embedding events: %w", err)
		}
		for i, e := range pending {
			if err := s.index.Put(e, ComputeContentHash(pendingDocs[i]), vecs[i]); err != nil {
				return nil, err
			}
		}
	}
	s.Embedded = len(pendingDocs)
	debug.Log("search index: %d events, %d embedded", s.index.Size(), s.Embedded)
	return s, nil
}

// LoadSearcher builds a searcher backed by the index cached at path and
// writes the refreshed index back. A missing or unreadable cache is rebuilt.
func LoadSearcher(ctx context.Context, events []model.Event, path string) (*Searcher, error) {
	var cached *VectorIndex
	if path != "" {
		idx, err := LoadVectorIndex(path)
		switch {
		case err == nil:
			cached = idx
		case errors.Is(err, os.ErrNotExist):
		default:
			debug.Warn("ignoring search cache %s: %v", path, err)
		}
	}

	s, err := NewSearcher(ctx, events, nil, cached)
	if err != nil {
		return nil, err
	}
	if path != "" && s.Embedded > 0 {
		if err := s.index.Save(path); err != nil {
			debug.Warn("saving search cache: %v", err)
		}
	}
	return s, nil
}

// Index exposes the vectors, mainly for persistence.
func (s *Searcher) Index() *VectorIndex { return s.index }

// Search returns up to k events ranked by similarity to query, restricted to
// the events keep accepts (nil keeps all). Events with a non-positive score
// are dropped.
func (s *Searcher) Search(ctx context.Context, query string, k int, keep Filter) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return nil, nil
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	// Rank everything so the title boost can reorder beyond the top k.
	results, err := s.index.Rank(vecs[0], keep)
	if err != nil {
		return nil, err
	}

	lq := strings.ToLower(query)
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		e := s.events[r.EventID]
		score := r.Score
		if strings.Contains(strings.ToLower(e.Title), lq) {
			score += TitleBoost
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{Event: e, Score: score})
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Event.ID, b.Event.ID)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
