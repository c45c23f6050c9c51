package loader_test

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/chronarc/pkg/loader"
)

// FuzzParseEvents checks the JSONL pipeline never panics and only returns
// events that pass validation.
//
// Run with: go test -fuzz=FuzzParseEvents -fuzztime=1m ./pkg/loader/...
func FuzzParseEvents(f *testing.F) {
	seeds := []string{
		`{"id":"a","title":"Wheel","year":-3500,"hierarchy_level":0,"weight":4}`,
		`{"id":"a1","year":1000,"hierarchy_level":1,"parent_event_id":"a","state":"ATTACKED"}`,
		"",
		"   \t  ",
		`{"id":"b","title":"Incomplete`,
		`{id:"c"}`,
		`{"id":"d","state":"burning"}`,
		`{"id":"e","weight":-1}`,
		`{"id":"f","hierarchy_level":-2}`,
		`{"id":"g","hierarchy_level":1}`,
		`{"year":"not a number","id":"h"}`,
		"\xef\xbb\xbf{\"id\":\"bom\"}",
		`null`,
		`[]`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Add(strings.Join(seeds, "\n"))

	f.Fuzz(func(t *testing.T, data string) {
		events, err := loader.ParseEventsWithOptions(strings.NewReader(data), loader.ParseOptions{
			WarningHandler: func(string) {},
			BufferSize:     4096,
		})
		if err != nil {
			return
		}
		for _, e := range events {
			if verr := e.Validate(); verr != nil {
				t.Fatalf("parser returned invalid event %+v: %v", e, verr)
			}
		}
	})
}
