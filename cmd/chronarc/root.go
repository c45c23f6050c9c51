package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/chronarc/internal/datasource"
	"github.com/vanderheijden86/chronarc/pkg/config"
	"github.com/vanderheijden86/chronarc/pkg/content"
	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/loader"
	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/navigation"
	"github.com/vanderheijden86/chronarc/pkg/version"
)

// app carries the flags and configuration shared by every subcommand.
type app struct {
	configPath string
	contentDir string
	sources    []string
	sample     bool
	pretty     bool
	debug      bool
	steps      []string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "chronarc",
		Short:         "Navigate a weighted historical timeline",
		Long:          "chronarc segments the visible events of a timeline, drills into the gaps between them and renders the arc.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.StringVarP(&a.contentDir, "content", "c", "", "content directory holding events.db, events.jsonl or events.yaml")
	pf.StringSliceVar(&a.sources, "source", nil, "explicit content file; repeat to merge several")
	pf.BoolVar(&a.sample, "sample", false, "use the built-in sample timeline")
	pf.BoolVar(&a.pretty, "pretty", false, "indent JSON output (default when stdout is a terminal)")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.segmentsCmd(),
		a.positionsCmd(),
		a.navigateCmd(),
		a.renderCmd(),
		a.exportCmd(),
		a.defendCmd(),
		a.attackCmd(),
		a.tuiCmd(),
		a.statsCmd(),
		a.sourcesCmd(),
		a.searchCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.debug {
		debug.SetEnabled(true)
	}

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("content") {
		a.cfg.Content.Dir = a.contentDir
		a.cfg.Content.Sources = nil
	}
	if cmd.Flags().Changed("source") {
		a.cfg.Content.Sources = a.sources
	}
	if !cmd.Flags().Changed("pretty") {
		a.pretty = isTerminal(cmd.OutOrStdout())
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadEvents resolves the content in priority order: --sample, explicit
// sources, the content directory, then the built-in sample when enabled.
// It also returns the files worth watching.
func (a *app) loadEvents(ctx context.Context) ([]model.Event, []string, error) {
	defer metrics.Timer(metrics.ContentLoad)()

	if a.sample {
		events, err := content.Sample()
		return events, nil, err
	}

	if len(a.cfg.Content.Sources) > 0 {
		sources := make([]datasource.DataSource, 0, len(a.cfg.Content.Sources))
		for _, p := range a.cfg.Content.Sources {
			src, err := datasource.SourceForPath(p)
			if err != nil {
				return nil, nil, err
			}
			sources = append(sources, src)
		}
		events, results, err := datasource.LoadAll(ctx, sources)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range results {
			if r.Error != nil {
				return nil, nil, fmt.Errorf("loading %s: %w", r.Source.Path, r.Error)
			}
		}
		return events, a.cfg.Content.Sources, nil
	}

	dir := a.cfg.Content.Dir
	if dir == "" {
		var err error
		if dir, err = loader.GetContentDir(""); err != nil {
			return nil, nil, err
		}
	}
	events, err := datasource.LoadEventsFromDir(ctx, dir)
	if err != nil {
		if a.cfg.Content.Sample && (errors.Is(err, loader.ErrNoEventsFile) || errors.Is(err, fs.ErrNotExist)) {
			debug.Log("no content in %s, using the sample timeline", dir)
			events, err := content.Sample()
			return events, nil, err
		}
		return nil, nil, err
	}

	var watch []string
	if found, derr := datasource.DiscoverSources(datasource.DiscoveryOptions{ContentDir: dir}); derr == nil {
		for _, s := range found {
			watch = append(watch, s.Path)
		}
	}
	return events, watch, nil
}

func (a *app) loadStore(ctx context.Context) (*eventstore.Store, []string, error) {
	events, paths, err := a.loadEvents(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := eventstore.New(events)
	if err != nil {
		return nil, nil, err
	}
	for _, verr := range store.Verify() {
		// Curated content such as the sample has many of these; report
		// them under --debug only.
		if errors.Is(verr, eventstore.ErrOutsideParentGap) {
			debug.Log("%v", verr)
			continue
		}
		debug.Warn("%v", verr)
	}
	return store, paths, nil
}

// session is a loaded store with its game state and a navigator that has
// replayed the --step flags.
type session struct {
	store *eventstore.Store
	book  *eventstore.StateBook
	nav   *navigation.Navigator
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	store, _, err := a.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	book := eventstore.NewStateBook(store)
	s := &session{store: store, book: book, nav: navigation.NewNavigator(store, book)}
	if err := applySteps(s.nav, a.steps); err != nil {
		return nil, err
	}
	return s, nil
}

// addStepFlag registers --step on view commands.
func (a *app) addStepFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&a.steps, "step", "s", nil, "navigation step to apply first: drill:<segment-id>, back, next, prev, reset")
}

// applySteps replays navigation steps in order.
func applySteps(nav *navigation.Navigator, steps []string) error {
	for i, step := range steps {
		step = strings.TrimSpace(step)
		var err error
		switch {
		case strings.HasPrefix(step, "drill:"):
			err = nav.Drill(strings.TrimPrefix(step, "drill:"))
		case step == "back":
			err = nav.Back()
		case step == "next":
			err = nav.Next()
		case step == "prev":
			err = nav.Prev()
		case step == "reset":
			nav.Reset()
		default:
			err = fmt.Errorf("unknown step %q", step)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
	}
	return nil
}

func (a *app) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if a.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
