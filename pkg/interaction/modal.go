package interaction

// modalGuard keeps the host's modal revealed for the duration of an
// operation. Nested operations share the outermost reveal.
type modalGuard struct {
	revealer Revealer
	depth    int
	restore  func()
}

func (m *modalGuard) enter() {
	if m.revealer == nil {
		return
	}
	if m.depth == 0 {
		m.restore = m.revealer.Reveal()
	}
	m.depth++
}

func (m *modalGuard) exit() {
	if m.revealer == nil || m.depth == 0 {
		return
	}
	m.depth--
	if m.depth == 0 && m.restore != nil {
		m.restore()
		m.restore = nil
	}
}

// run calls fn inside the guard.
func (m *modalGuard) run(fn func()) {
	m.enter()
	defer m.exit()
	fn()
}
