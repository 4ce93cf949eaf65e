package widget

// Panel tracks whether the chat panel is shown. It knows nothing about the
// conversation; callers compose visibility changes with resets explicitly.
type Panel struct {
	visible bool
}

func (p *Panel) Visible() bool { return p.visible }

// Toggle flips visibility and returns the new value.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// SetVisible reports whether the value changed.
func (p *Panel) SetVisible(v bool) bool {
	if p.visible == v {
		return false
	}
	p.visible = v
	return true
}
