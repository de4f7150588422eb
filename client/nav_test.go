package client

import (
	"testing"

	"uhmwpe-mdm/core/store"
)

type fakeFrame struct {
	shown        []store.NavModule
	placeholders []string
}

func (f *fakeFrame) ShowModule(m store.NavModule) { f.shown = append(f.shown, m) }

func (f *fakeFrame) ShowPlaceholder(message string) { f.placeholders = append(f.placeholders, message) }

type fakeDrawer struct {
	closed int
}

func (f *fakeDrawer) Close() { f.closed++ }

func navModules(names ...string) []store.NavModule {
	out := make([]store.NavModule, 0, len(names))
	for i, n := range names {
		out = append(out, store.NavModule{ID: int64(i + 1), Name: n, Route: "/" + n})
	}
	return out
}

func TestNavBuildAutoActivatesFirst(t *testing.T) {
	frame := &fakeFrame{}
	nav := NewNavView(frame, nil)
	nav.Build(navModules("fiber_data", "resin_spinning"))
	if nav.Selected() != 0 {
		t.Fatalf("first module not auto-activated: selected=%d", nav.Selected())
	}
	if len(frame.shown) != 1 || frame.shown[0].Name != "fiber_data" {
		t.Fatalf("frame not routed to first module: %+v", frame.shown)
	}
}

func TestNavRebuildReplacesEntries(t *testing.T) {
	frame := &fakeFrame{}
	nav := NewNavView(frame, nil)
	nav.Build(navModules("a", "b", "c"))
	nav.Activate(2)

	nav.Build(navModules("x"))
	if len(nav.Modules()) != 1 || nav.Modules()[0].Name != "x" {
		t.Fatalf("rebuild did not replace entries: %+v", nav.Modules())
	}
	if nav.Selected() != -1 {
		t.Fatalf("stale selection survived rebuild")
	}
	// Auto-activation happens only on the first build.
	if len(frame.shown) != 2 {
		t.Fatalf("unexpected frame history: %+v", frame.shown)
	}
}

func TestNavEmptyListShowsPlaceholder(t *testing.T) {
	frame := &fakeFrame{}
	nav := NewNavView(frame, nil)
	nav.Build(nil)
	if len(frame.placeholders) != 1 {
		t.Fatalf("expected placeholder for empty module list")
	}
	if nav.Activate(0) {
		t.Fatalf("activation must fail with no modules")
	}
}

func TestNavNarrowViewportClosesDrawer(t *testing.T) {
	frame := &fakeFrame{}
	drawer := &fakeDrawer{}
	nav := NewNavView(frame, drawer)
	nav.Build(navModules("a", "b"))

	nav.Activate(1)
	if drawer.closed != 0 {
		t.Fatalf("wide viewport should not close the drawer")
	}
	nav.SetNarrow(true)
	nav.Activate(0)
	if drawer.closed != 1 {
		t.Fatalf("narrow viewport activation should close the drawer")
	}
}
