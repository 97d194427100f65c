package organisms

// Mode represents the current interaction state.
type Mode int

const (
	ModeIdle      Mode = iota
	ModeStreaming      // a request is in flight
	ModeHidden         // output pane collapsed
)
