package navigation

import (
	"testing"

	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/testutil"
)

func BenchmarkDrillAndBack(b *testing.B) {
	store, err := eventstore.New(testutil.QuickHierarchy(20, 6, 3))
	if err != nil {
		b.Fatal(err)
	}
	nav := NewNavigator(store, nil)
	target := nav.Segments()[0].ID

	b.ReportAllocs()
	for b.Loop() {
		if err := nav.Drill(target); err != nil {
			b.Fatal(err)
		}
		if err := nav.Back(); err != nil {
			b.Fatal(err)
		}
	}
}
