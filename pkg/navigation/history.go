package navigation

// History is the stack of views left behind by drill-downs.
type History struct {
	views []ViewState
}

// Push saves a copy of v.
func (h *History) Push(v ViewState) {
	h.views = append(h.views, v.Clone())
}

// Pop removes and returns the most recent view. ok is false when empty.
func (h *History) Pop() (v ViewState, ok bool) {
	if len(h.views) == 0 {
		return ViewState{}, false
	}
	last := len(h.views) - 1
	v = h.views[last]
	h.views[last] = ViewState{}
	h.views = h.views[:last]
	return v, true
}

// Peek returns the most recent view without removing it.
func (h *History) Peek() (ViewState, bool) {
	if len(h.views) == 0 {
		return ViewState{}, false
	}
	return h.views[len(h.views)-1].Clone(), true
}

// Len returns the stack depth.
func (h *History) Len() int {
	return len(h.views)
}

// CanNavigateBack reports whether Pop would succeed.
func (h *History) CanNavigateBack() bool {
	return len(h.views) > 0
}

// Clear drops every saved view.
func (h *History) Clear() {
	h.views = nil
}
