package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chronarc/internal/datasource"
	"github.com/vanderheijden86/chronarc/pkg/loader"
	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/version"
)

func (a *app) statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Load the timeline, walk every segment once and print timing metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metrics.SetEnabled(true)
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			// Drill into each clickable top-level segment and back out.
			for _, seg := range s.nav.Segments() {
				if !seg.IsClickable {
					continue
				}
				if err := s.nav.Drill(seg.ID); err != nil {
					return err
				}
				s.nav.Mapper()
				if err := s.nav.Back(); err != nil {
					return err
				}
			}

			out := struct {
				Events   int                   `json:"events"`
				Depth    int                   `json:"hierarchy_depth"`
				Segments int                   `json:"segments"`
				Timings  []metrics.TimingStats `json:"timings"`
			}{
				Events:   s.store.Len(),
				Depth:    s.store.Depth(),
				Segments: len(s.nav.Segments()),
				Timings:  metrics.Snapshot(),
			}
			return a.writeJSON(cmd.OutOrStdout(), out)
		},
	}
	a.addStepFlag(cmd)
	return cmd
}

func (a *app) sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the content sources of a directory and check them for drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := a.cfg.Content.Dir
			if dir == "" {
				var err error
				if dir, err = loader.GetContentDir(""); err != nil {
					return err
				}
			}
			sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
				ContentDir:             dir,
				ValidateAfterDiscovery: true,
				IncludeInvalid:         true,
			})
			if err != nil {
				return err
			}

			type diffOutput struct {
				SourceA string `json:"source_a"`
				SourceB string `json:"source_b"`
				Summary string `json:"summary"`
			}
			out := struct {
				Dir          string                  `json:"dir"`
				Sources      []datasource.DataSource `json:"sources"`
				Best         string                  `json:"best,omitempty"`
				Inconsistent []diffOutput            `json:"inconsistent"`
			}{Dir: dir, Sources: sources, Inconsistent: []diffOutput{}}

			if best, err := datasource.SelectBestSource(sources); err == nil {
				out.Best = best.Path
			}
			for _, d := range datasource.CheckAllSourcesConsistent(cmd.Context(), sources, datasource.DefaultDiffOptions()) {
				out.Inconsistent = append(out.Inconsistent, diffOutput{SourceA: d.SourceA, SourceB: d.SourceB, Summary: d.Summary()})
			}
			return a.writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "chronarc %s\n", version.Version)
			return err
		},
	}
}
