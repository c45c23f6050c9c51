package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chronarc/pkg/export"
	"github.com/vanderheijden86/chronarc/pkg/hooks"
	"github.com/vanderheijden86/chronarc/pkg/loader"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		out      string
		format   string
		width    int
		height   int
		title    string
		selected string
		noLabels bool
		noHooks  bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the current view as an SVG or PNG arc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			rc := a.cfg.Render
			switch ext := strings.ToLower(filepath.Ext(out)); {
			case cmd.Flags().Changed("format"):
				rc.Format = strings.ToLower(format)
			case ext == ".svg" || ext == ".png":
				rc.Format = ext[1:]
			}
			if cmd.Flags().Changed("width") {
				rc.Width = width
			}
			if cmd.Flags().Changed("height") {
				rc.Height = height
			}
			if noLabels {
				rc.ShowLabels = false
			}

			opts := export.ArcSnapshotOptions{
				Path:       out,
				Format:     rc.Format,
				Title:      title,
				Width:      rc.Width,
				Height:     rc.Height,
				Visible:    s.nav.VisibleEvents(),
				Segments:   s.nav.Segments(),
				ShowLabels: rc.ShowLabels,
				Selected:   selected,
			}

			if out == "-" && rc.Format != "svg" {
				return fmt.Errorf("only svg can be written to stdout")
			}
			hctx := hooks.ExportContext{
				ExportPath:   out,
				ExportFormat: rc.Format,
				EventCount:   len(opts.Visible),
				Depth:        s.nav.Depth(),
				Timestamp:    time.Now(),
			}
			return a.withHooks(cmd.ErrOrStderr(), hctx, noHooks, func() error {
				if out == "-" {
					return export.WriteArcSVG(cmd.OutOrStdout(), opts)
				}
				if err := export.SaveArcSnapshot(opts); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
				return nil
			})
		},
	}
	a.addStepFlag(cmd)
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "chronarc.svg", "output file, or - for SVG on stdout")
	f.StringVar(&format, "format", "", "svg or png (default from the extension, then config)")
	f.IntVar(&width, "width", 0, "canvas width in pixels")
	f.IntVar(&height, "height", 0, "canvas height in pixels")
	f.StringVar(&title, "title", "", "title drawn above the arc")
	f.StringVar(&selected, "select", "", "event id to highlight")
	f.BoolVar(&noLabels, "no-labels", false, "omit event labels")
	f.BoolVar(&noHooks, "no-hooks", false, "skip hooks.yaml in the content directory")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format  string
		title   string
		noHooks bool
	)
	cmd := &cobra.Command{
		Use:   "export PATH",
		Short: "Export the current view to SQLite, JSON or Markdown",
		Long: `Export the events, weighted positions and segments of the current view.

The format follows the file extension (.db, .json, .md) unless --format is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if format == "" {
				format = formatFromExt(path)
			}
			if title == "" {
				title = "chronarc"
			}

			exp := export.NewSQLiteExporter(s.nav.Events(), s.nav.Current(), s.nav.Segments())
			exp.Config.Title = title

			var write func() error
			switch format {
			case "sqlite":
				write = func() error { return exp.Export(path) }
			case "json":
				write = func() error { return exp.ExportToJSON(path) }
			case "md", "markdown":
				format = "markdown"
				write = func() error {
					md := export.GenerateViewMarkdown(title, s.nav.VisibleEvents(), s.nav.Segments())
					if dir := filepath.Dir(path); dir != "." {
						if err := os.MkdirAll(dir, 0o755); err != nil {
							return err
						}
					}
					return os.WriteFile(path, []byte(md), 0o644)
				}
			default:
				return fmt.Errorf("unsupported export format %q (want sqlite, json or md)", format)
			}

			hctx := hooks.ExportContext{
				ExportPath:   path,
				ExportFormat: format,
				EventCount:   len(s.nav.VisibleEvents()),
				Depth:        s.nav.Depth(),
				Timestamp:    time.Now(),
			}
			return a.withHooks(cmd.ErrOrStderr(), hctx, noHooks, func() error {
				if err := write(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %s (%s)\n", path, format)
				return nil
			})
		},
	}
	a.addStepFlag(cmd)
	cmd.Flags().StringVar(&format, "format", "", "sqlite, json or md")
	cmd.Flags().StringVar(&title, "title", "", "title stored with the export")
	cmd.Flags().BoolVar(&noHooks, "no-hooks", false, "skip hooks.yaml in the content directory")
	return cmd
}

// withHooks wraps write in the pre- and post-export hooks configured in the
// content directory. A failing pre-export hook cancels the write.
func (a *app) withHooks(stderr io.Writer, hctx hooks.ExportContext, noHooks bool, write func() error) error {
	dir := a.cfg.Content.Dir
	if dir == "" {
		var err error
		if dir, err = loader.GetContentDir(""); err != nil {
			return err
		}
	}
	exec, err := hooks.RunHooks(dir, hctx, noHooks)
	if err != nil {
		return err
	}
	if exec == nil {
		return write()
	}

	if err := exec.RunPreExport(); err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	err = exec.RunPostExport()
	fmt.Fprintln(stderr, exec.Summary())
	return err
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".md", ".markdown":
		return "md"
	default:
		return "sqlite"
	}
}
