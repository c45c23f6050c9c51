package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/ui"
	"github.com/vanderheijden86/chronarc/pkg/watcher"
)

func (a *app) tuiCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the timeline interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("tui needs an interactive terminal")
			}
			store, paths, err := a.loadStore(cmd.Context())
			if err != nil {
				return err
			}

			opts := ui.Options{
				ShowHiddenCount: a.cfg.UI.ShowHiddenCount,
				ConfirmQuit:     a.cfg.UI.ConfirmQuit,
				AttackSeed:      a.cfg.Game.AttackSeed,
				AttackChance:    a.cfg.Game.AttackChance,
				Reload: func() (*eventstore.Store, error) {
					s, _, err := a.loadStore(context.Background())
					return s, err
				},
			}
			if a.cfg.UI.Watch && !noWatch && len(paths) > 0 {
				w, err := watcher.NewWatcher(paths, watcher.WithOnError(func(err error) {
					debug.Warn("watch: %v", err)
				}))
				if err == nil {
					err = w.Start()
				}
				if err != nil {
					debug.Warn("live reload disabled: %v", err)
				} else {
					defer w.Stop()
					opts.Watcher = w
				}
			}

			return runTUIProgram(ui.NewModel(store, opts))
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when content files change")
	return cmd
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running navigator: %w", err)
	}
	return nil
}
