package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/position"
	"github.com/vanderheijden86/chronarc/pkg/segment"
)

// Default canvas size, matching the web client's arc container.
const (
	DefaultSnapshotWidth  = 1200
	DefaultSnapshotHeight = 480
)

// ArcSnapshotOptions controls arc snapshot export.
type ArcSnapshotOptions struct {
	Path       string // Output path; format inferred from extension when Format empty
	Format     string // "svg" or "png" (case-insensitive)
	Title      string
	Width      int
	Height     int
	Visible    []model.Event            // Events drawn as dots, states already applied
	Segments   []segment.DynamicSegment // Segments of the same view
	ShowLabels bool
	Selected   string // Event id drawn with a highlight ring
}

// SaveArcSnapshot renders the current view's arc to an SVG or PNG file.
func SaveArcSnapshot(opts ArcSnapshotOptions) error {
	if len(opts.Visible) == 0 {
		return fmt.Errorf("no events to render")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	defer metrics.Timer(metrics.SnapshotRender)()
	layout := buildArcLayout(opts)

	if format == "png" {
		return renderArcPNG(opts.Path, layout)
	}
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	return renderArcSVG(file, layout)
}

// WriteArcSVG renders the arc as SVG to w.
func WriteArcSVG(w io.Writer, opts ArcSnapshotOptions) error {
	if len(opts.Visible) == 0 {
		return fmt.Errorf("no events to render")
	}
	defer metrics.Timer(metrics.SnapshotRender)()
	return renderArcSVG(w, buildArcLayout(opts))
}

// --- layout ----------------------------------------------------------------

type arcStroke struct {
	SegmentID       string
	Color           string
	Start, Ctrl, To Point
}

type arcDot struct {
	ID       string
	Label    string
	At       Point
	Color    string
	Selected bool
}

type arcBadge struct {
	At    Point
	Label string
}

type arcLayout struct {
	Width, Height int
	Arc           Arc
	Strokes       []arcStroke
	Dots          []arcDot
	Badges        []arcBadge
	Labels        bool
	Title         string
	Summary       []string
}

func buildArcLayout(opts ArcSnapshotOptions) arcLayout {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = DefaultSnapshotWidth
	}
	if h <= 0 {
		h = DefaultSnapshotHeight
	}
	arc := NewArc(float64(w), float64(h))
	mapper := position.NewMapper(opts.Visible)

	layout := arcLayout{
		Width:  w,
		Height: h,
		Arc:    arc,
		Labels: opts.ShowLabels,
		Title:  opts.Title,
	}
	if strings.TrimSpace(layout.Title) == "" {
		layout.Title = "Timeline"
	}

	clickable := 0
	for _, seg := range opts.Segments {
		for _, sec := range seg.ColorSections {
			t0, t1 := mapper.Span(sec.StartYear, sec.EndYear)
			if t1 <= t0 {
				continue
			}
			s, c, e := arc.Sub(t0, t1)
			layout.Strokes = append(layout.Strokes, arcStroke{
				SegmentID: seg.ID,
				Color:     sec.Color,
				Start:     s, Ctrl: c, To: e,
			})
		}
		if seg.IsClickable {
			clickable++
			t0, t1 := mapper.Span(seg.StartYear, seg.EndYear)
			mid := arc.At((t0 + t1) / 2)
			layout.Badges = append(layout.Badges, arcBadge{
				At:    Point{X: mid.X, Y: mid.Y + 22},
				Label: fmt.Sprintf("+%d", len(seg.HiddenEvents)),
			})
		}
	}

	for _, e := range mapper.Events() {
		t, _ := mapper.T(e.ID)
		layout.Dots = append(layout.Dots, arcDot{
			ID:       e.ID,
			Label:    truncate(e.Title, 24),
			At:       arc.At(t),
			Color:    model.StateColor(e.State),
			Selected: e.ID == opts.Selected,
		})
	}

	events := mapper.Events()
	layout.Summary = []string{
		fmt.Sprintf("range: %s .. %s", model.FormatYear(events[0].Year), model.FormatYear(events[len(events)-1].Year)),
		fmt.Sprintf("visible: %d  segments: %d  expandable: %d", len(events), len(opts.Segments), clickable),
	}
	return layout
}

// --- rendering -------------------------------------------------------------

const (
	colorBackdrop = "#f9fafb"
	colorHeaderBG = "#f3f4f6"
	colorBaseArc  = "#60a5fa"
	colorText     = "#111111"
	colorSubtle   = "#666666"
	colorRing     = "#1d4ed8"
	dotRadius     = 8.0
	headerHeight  = 90.0
)

func renderArcSVG(w io.Writer, layout arcLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, "fill:"+colorBackdrop)
	canvas.Roundrect(16, 16, layout.Width-32, int(headerHeight-24), 10, 10, "fill:"+colorHeaderBG)

	canvas.Text(32, 40, layout.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", colorText))
	for i, line := range layout.Summary {
		canvas.Text(32, 58+i*16, line, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", colorSubtle))
	}

	a := layout.Arc
	canvas.Qbez(ix(a.P0.X), ix(a.P0.Y), ix(a.P1.X), ix(a.P1.Y), ix(a.P2.X), ix(a.P2.Y),
		fmt.Sprintf("fill:none;stroke:%s;stroke-width:4;stroke-linecap:round;opacity:0.35", colorBaseArc))

	canvas.Gid("sections")
	for _, s := range layout.Strokes {
		canvas.Qbez(ix(s.Start.X), ix(s.Start.Y), ix(s.Ctrl.X), ix(s.Ctrl.Y), ix(s.To.X), ix(s.To.Y),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:6;stroke-linecap:butt", s.Color),
			fmt.Sprintf(`data-segment="%s"`, s.SegmentID))
	}
	canvas.Gend()

	for _, b := range layout.Badges {
		canvas.Text(ix(b.At.X), ix(b.At.Y), b.Label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", colorSubtle))
	}

	for i, d := range layout.Dots {
		x, y := ix(d.At.X), ix(d.At.Y)
		if d.Selected {
			canvas.Circle(x, y, int(dotRadius)+4, fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", colorRing))
		}
		canvas.Circle(x, y, int(dotRadius), "fill:"+d.Color)
		if layout.Labels {
			canvas.Text(x, y-labelOffset(i), d.Label,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", colorText))
		}
	}

	canvas.End()
	return nil
}

func renderArcPNG(path string, layout arcLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetHexColor(colorBackdrop)
	dc.Clear()

	dc.SetHexColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, headerHeight-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetHexColor(colorText)
	dc.DrawStringAnchored(layout.Title, 32, 36, 0, 0.5)
	dc.SetHexColor(colorSubtle)
	for i, line := range layout.Summary {
		dc.DrawStringAnchored(line, 32, 54+float64(i)*16, 0, 0.5)
	}

	a := layout.Arc
	dc.SetLineCapRound()
	dc.SetLineWidth(4)
	dc.SetRGBA(0x60/255.0, 0xa5/255.0, 0xfa/255.0, 0.35)
	dc.MoveTo(a.P0.X, a.P0.Y)
	dc.QuadraticTo(a.P1.X, a.P1.Y, a.P2.X, a.P2.Y)
	dc.Stroke()

	dc.SetLineCapButt()
	dc.SetLineWidth(6)
	for _, s := range layout.Strokes {
		dc.SetHexColor(s.Color)
		dc.MoveTo(s.Start.X, s.Start.Y)
		dc.QuadraticTo(s.Ctrl.X, s.Ctrl.Y, s.To.X, s.To.Y)
		dc.Stroke()
	}

	dc.SetHexColor(colorSubtle)
	for _, b := range layout.Badges {
		dc.DrawStringAnchored(b.Label, b.At.X, b.At.Y, 0.5, 0.5)
	}

	for i, d := range layout.Dots {
		if d.Selected {
			dc.SetHexColor(colorRing)
			dc.SetLineWidth(1.5)
			dc.DrawCircle(d.At.X, d.At.Y, dotRadius+4)
			dc.Stroke()
		}
		dc.SetHexColor(d.Color)
		dc.DrawCircle(d.At.X, d.At.Y, dotRadius)
		dc.Fill()
		if layout.Labels {
			dc.SetHexColor(colorText)
			dc.DrawStringAnchored(d.Label, d.At.X, d.At.Y-float64(labelOffset(i)), 0.5, 0.5)
		}
	}

	return dc.SavePNG(path)
}

// labelOffset staggers neighbouring labels so dense views stay legible.
func labelOffset(i int) int {
	if i%2 == 0 {
		return 16
	}
	return 30
}

func ix(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
