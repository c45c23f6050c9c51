package main

import (
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/navigation"
	"github.com/vanderheijden86/chronarc/pkg/segment"
)

// viewOutput is the JSON shape of one navigator view.
type viewOutput struct {
	MinYear  int                      `json:"min_year"`
	MaxYear  int                      `json:"max_year"`
	Depth    int                      `json:"depth"`
	CanBack  bool                     `json:"can_navigate_back"`
	Visible  []string                 `json:"visible"`
	Segments []segment.DynamicSegment `json:"segments"`
}

func newViewOutput(nav *navigation.Navigator) viewOutput {
	cur := nav.Current()
	var ids []string
	for _, e := range nav.VisibleEvents() {
		ids = append(ids, e.ID)
	}
	segs := nav.Segments()
	if segs == nil {
		segs = []segment.DynamicSegment{}
	}
	return viewOutput{
		MinYear:  cur.MinYear,
		MaxYear:  cur.MaxYear,
		Depth:    nav.Depth(),
		CanBack:  nav.CanNavigateBack(),
		Visible:  ids,
		Segments: segs,
	}
}

func (a *app) segmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Print the segments of the current view as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			return a.writeJSON(cmd.OutOrStdout(), newViewOutput(s.nav))
		},
	}
	a.addStepFlag(cmd)
	return cmd
}

// positionOutput is one event placed on the arc.
type positionOutput struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Year  int              `json:"year"`
	T     float64          `json:"t"`
	State model.EventState `json:"state"`
}

func (a *app) positionsCmd() *cobra.Command {
	var years []int
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Print the weighted arc position of every visible event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			mapper := s.nav.Mapper()
			out := struct {
				Events []positionOutput `json:"events"`
				Years  map[int]float64  `json:"years,omitempty"`
			}{Events: []positionOutput{}}
			for _, e := range mapper.Events() {
				t, _ := mapper.T(e.ID)
				out.Events = append(out.Events, positionOutput{ID: e.ID, Title: e.Title, Year: e.Year, T: t, State: e.State})
			}
			if len(years) > 0 {
				out.Years = make(map[int]float64, len(years))
				for _, y := range years {
					out.Years[y] = mapper.YearToT(y)
				}
			}
			return a.writeJSON(cmd.OutOrStdout(), out)
		},
	}
	a.addStepFlag(cmd)
	cmd.Flags().IntSliceVar(&years, "year", nil, "also interpolate these years onto the arc")
	return cmd
}

func (a *app) navigateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "navigate STEP...",
		Short: "Apply navigation steps and print every intermediate view",
		Long: `Apply navigation steps in order and print the view after each one.

Steps: drill:<segment-id>, back, next, prev, reset.`,
		Example: "  chronarc --sample navigate drill:seg-evt-top-001-evt-top-002 next back",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			type stepOutput struct {
				Step string     `json:"step"`
				View viewOutput `json:"view"`
			}
			out := []stepOutput{{Step: "start", View: newViewOutput(s.nav)}}
			for _, step := range args {
				if err := applySteps(s.nav, []string{step}); err != nil {
					return err
				}
				out = append(out, stepOutput{Step: step, View: newViewOutput(s.nav)})
			}
			return a.writeJSON(cmd.OutOrStdout(), out)
		},
	}
	a.addStepFlag(cmd)
	return cmd
}
