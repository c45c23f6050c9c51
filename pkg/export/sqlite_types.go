package export

import (
	"time"

	"github.com/vanderheijden86/chronarc/pkg/segment"
)

// ExportMeta contains metadata about the export.
type ExportMeta struct {
	Version      string    `json:"version"`
	GeneratedAt  time.Time `json:"generated_at"`
	EventCount   int       `json:"event_count"`
	SegmentCount int       `json:"segment_count"`
	Title        string    `json:"title,omitempty"`
}

// ExportView is the JSON form of one view: its frame, the weighted
// positions of its events and its segments.
type ExportView struct {
	Meta      ExportMeta               `json:"meta"`
	MinYear   int                      `json:"min_year"`
	MaxYear   int                      `json:"max_year"`
	Positions map[string]float64       `json:"positions"`
	Segments  []segment.DynamicSegment `json:"segments"`
}

// SQLiteExportConfig configures the SQLite export process.
type SQLiteExportConfig struct {
	// Title is stored in export_meta
	Title string

	// Optimize runs ANALYZE and VACUUM after writing
	Optimize bool

	// PageSize is the SQLite page size used when optimizing
	PageSize int
}

// DefaultSQLiteExportConfig returns sensible defaults for export configuration.
func DefaultSQLiteExportConfig() SQLiteExportConfig {
	return SQLiteExportConfig{
		Optimize: true,
		PageSize: 4096,
	}
}
