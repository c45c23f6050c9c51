package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/loader"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// maxParallelLoads bounds open files during LoadAll.
const maxParallelLoads = 8

// LoadEvents discovers the sources under root, picks the freshest valid one
// and loads it. It falls back to plain file lookup when discovery finds
// nothing valid.
func LoadEvents(ctx context.Context, root string) ([]model.Event, error) {
	dir, err := loader.GetContentDir(root)
	if err != nil {
		return nil, err
	}
	return LoadEventsFromDir(ctx, dir)
}

// LoadEventsFromDir is LoadEvents for a known content directory.
func LoadEventsFromDir(ctx context.Context, dir string) ([]model.Event, error) {
	events, smartErr := loadSmart(ctx, dir)
	if smartErr == nil {
		return events, nil
	}
	debug.Log("smart load of %s failed: %v", dir, smartErr)

	path, err := loader.FindEventsPath(dir)
	if err != nil {
		return nil, err
	}
	return loader.LoadEventsFromFile(path)
}

func loadSmart(ctx context.Context, dir string) ([]model.Event, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		ContentDir:             dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		return nil, err
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(ctx, best)
}

// LoadFromSource loads events from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource) ([]model.Event, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadEvents(ctx)

	case SourceTypeJSONL, SourceTypeYAML:
		return loader.LoadEventsFromFile(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadResult is the outcome of loading one source in LoadAll.
type LoadResult struct {
	Source DataSource
	Events []model.Event
	Error  error
}

// LoadAll loads every source concurrently and merges them in the given
// order. The first source to define an id wins. A failing source is recorded
// in its LoadResult and skipped; only context cancellation fails the merge.
func LoadAll(ctx context.Context, sources []DataSource) ([]model.Event, []LoadResult, error) {
	results := make([]LoadResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = LoadResult{Source: src, Error: err}
				return nil
			}
			events, err := LoadFromSource(gctx, src)
			results[i] = LoadResult{Source: src, Events: events, Error: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, err
	}
	if err := ctx.Err(); err != nil {
		return nil, results, fmt.Errorf("loading sources: %w", err)
	}

	seen := make(map[string]bool)
	var merged []model.Event
	for _, r := range results {
		if r.Error != nil {
			debug.Warn("skipping source %s: %v", r.Source.Path, r.Error)
			continue
		}
		for _, e := range r.Events {
			if seen[e.ID] {
				debug.Log("%s: duplicate %s ignored", r.Source.Path, e.ID)
				continue
			}
			seen[e.ID] = true
			merged = append(merged, e)
		}
	}
	return merged, results, nil
}
