package client

import "uhmwpe-mdm/core/store"

// ContentFrame is where the active module renders.
type ContentFrame interface {
	ShowModule(m store.NavModule)
	ShowPlaceholder(message string)
}

// Drawer is the overlay navigation on narrow viewports.
type Drawer interface {
	Close()
}

// NavView turns the permitted module list into selectable entries. Every
// Build replaces the entries wholesale; there is no diffing.
type NavView struct {
	frame    ContentFrame
	drawer   Drawer
	narrow   bool
	modules  []store.NavModule
	selected int
	built    bool
}

func NewNavView(frame ContentFrame, drawer Drawer) *NavView {
	return &NavView{frame: frame, drawer: drawer, selected: -1}
}

// SetNarrow marks the viewport as narrow, so activation closes the
// drawer.
func (n *NavView) SetNarrow(narrow bool) { n.narrow = narrow }

func (n *NavView) Modules() []store.NavModule { return n.modules }

func (n *NavView) Selected() int { return n.selected }

// Build replaces the nav with the given modules and auto-activates the
// first entry on the initial non-empty build.
func (n *NavView) Build(modules []store.NavModule) {
	n.modules = append([]store.NavModule(nil), modules...)
	n.selected = -1
	if len(n.modules) == 0 {
		if n.frame != nil {
			n.frame.ShowPlaceholder("No modules available")
		}
		n.built = true
		return
	}
	first := !n.built
	n.built = true
	if first {
		n.Activate(0)
	}
}

// Activate selects one entry, routes the content frame to it and closes
// the drawer on narrow viewports.
func (n *NavView) Activate(i int) bool {
	if i < 0 || i >= len(n.modules) {
		return false
	}
	n.selected = i
	if n.frame != nil {
		n.frame.ShowModule(n.modules[i])
	}
	if n.narrow && n.drawer != nil {
		n.drawer.Close()
	}
	return true
}
