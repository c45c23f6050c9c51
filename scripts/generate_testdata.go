//go:build ignore

// generate_testdata.go writes deterministic timelines for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.jsonl   (6 milestones, 3 levels of 4)
//	testdata/benchmark/medium.jsonl  (20 milestones, 3 levels of 6)
//	testdata/benchmark/large.jsonl   (50 milestones, 3 levels of 10)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/testutil"
)

type datasetSpec struct {
	name     string
	top      int
	children int
	depth    int
}

var datasets = []datasetSpec{
	{"small", 6, 4, 3},
	{"medium", 20, 6, 3},
	{"large", 50, 10, 3},
}

var titles = []string{
	"Founding of a city",
	"Treaty signed",
	"Great fire",
	"New trade route",
	"Eclipse recorded",
	"University opens",
	"Plague outbreak",
	"Bridge completed",
}

func main() {
	outputDir := filepath.Join("testdata", "benchmark")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.top*1000 + ds.children)
		cfg.IDPrefix = "BENCH"
		cfg.TopLevel, cfg.Children, cfg.Depth = ds.top, ds.children, ds.depth
		cfg.StateMix = []model.EventState{model.StateSafe, model.StateSafe, model.StateThreatened, model.StateAttacked}
		cfg.MinWeight, cfg.MaxWeight = 0.5, 3

		events := testutil.New(cfg).Hierarchy()
		for i := range events {
			events[i].Title = fmt.Sprintf("%s #%d", titles[i%len(titles)], i)
		}

		jsonl := testutil.ToJSONL(events)
		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := os.WriteFile(outputPath, []byte(jsonl), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("Written %s (%d events, %d bytes)\n", outputPath, len(events), len(jsonl))
	}
}
