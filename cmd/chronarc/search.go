package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chronarc/pkg/config"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/search"
)

type searchHit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Year  string  `json:"year"`
	Level int     `json:"hierarchy_level"`
	Score float64 `json:"score"`
}

func (a *app) searchCmd() *cobra.Command {
	var (
		limit   int
		noCache bool
		inView  bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Find events by title, tags and story text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			var keep search.Filter
			if visible := sess.nav.VisibleEvents(); inView && len(visible) > 0 {
				view := sess.nav.Current()
				keep = search.InView(view.MinYear, view.MaxYear, visible[0].HierarchyLevel)
			}

			cache := ""
			if dir := config.StateDir(); dir != "" && !noCache {
				cache = filepath.Join(dir, "index.bin")
			}
			s, err := search.LoadSearcher(cmd.Context(), sess.store.All(), cache)
			if err != nil {
				return err
			}
			hits, err := s.Search(cmd.Context(), strings.Join(args, " "), limit, keep)
			if err != nil {
				return err
			}

			out := make([]searchHit, 0, len(hits))
			for _, h := range hits {
				out = append(out, searchHit{
					ID:    h.Event.ID,
					Title: h.Event.Title,
					Year:  model.FormatYear(h.Event.Year),
					Level: h.Event.HierarchyLevel,
					Score: h.Score,
				})
			}
			return a.writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "k", 5, "maximum number of results")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not read or write the on-disk index")
	cmd.Flags().BoolVar(&inView, "in-view", false, "only return events at the current view's level and years")
	a.addStepFlag(cmd)
	return cmd
}
