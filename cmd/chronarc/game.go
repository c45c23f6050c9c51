package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// gameOutput reports a state change and the view it leaves behind.
type gameOutput struct {
	Changed []string                 `json:"changed"`
	Counts  map[model.EventState]int `json:"counts"`
	View    viewOutput               `json:"view"`
}

func (a *app) defendCmd() *cobra.Command {
	var fail bool
	cmd := &cobra.Command{
		Use:   "defend EVENT_ID...",
		Short: "Resolve the defense of attacked events and print the recolored view",
		Long: `Resolve the defense of attacked events. A won defense marks the event
defended; --fail marks it corrupted. State changes last for this invocation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if !s.store.Has(id) {
					return fmt.Errorf("%w: %s", eventstore.ErrEventNotFound, id)
				}
				if !s.book.CanDefend(id) {
					st, _ := s.book.State(id)
					return fmt.Errorf("%s is %s, not under attack", id, st)
				}
				if err := s.book.HandleDefenseOutcome(id, !fail); err != nil {
					return err
				}
			}
			return a.writeJSON(cmd.OutOrStdout(), gameOutput{
				Changed: args,
				Counts:  s.book.Counts(),
				View:    newViewOutput(s.nav),
			})
		},
	}
	a.addStepFlag(cmd)
	cmd.Flags().BoolVar(&fail, "fail", false, "the defense failed")
	return cmd
}

func (a *app) attackCmd() *cobra.Command {
	var (
		seed   int64
		chance float64
	)
	cmd := &cobra.Command{
		Use:   "attack [EVENT_ID...]",
		Short: "Put events under attack and print the recolored view",
		Long: `Put the named safe events under attack. Without ids, a random wave
attacks each safe event with the configured chance; the seed makes the
wave repeatable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			var hit []string
			if len(args) > 0 {
				for _, id := range args {
					if err := s.book.SimulateAttack(id); err != nil {
						return err
					}
				}
				hit = args
			} else {
				g := a.cfg.Game
				if cmd.Flags().Changed("seed") {
					g.AttackSeed = seed
				}
				if cmd.Flags().Changed("chance") {
					g.AttackChance = chance
				}
				if g.AttackChance < 0 || g.AttackChance > 1 {
					return fmt.Errorf("chance must be within [0,1], got %g", g.AttackChance)
				}
				rng := rand.New(rand.NewPCG(uint64(g.AttackSeed), 0))
				hit = s.book.AttackRandom(rng, g.AttackChance)
			}
			if hit == nil {
				hit = []string{}
			}
			return a.writeJSON(cmd.OutOrStdout(), gameOutput{
				Changed: hit,
				Counts:  s.book.Counts(),
				View:    newViewOutput(s.nav),
			})
		},
	}
	a.addStepFlag(cmd)
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the wave (default from config)")
	cmd.Flags().Float64Var(&chance, "chance", 0, "probability that a safe event is attacked (default from config)")
	return cmd
}
