package events

// Presenter publishes surface updates on a bus. It is safe for use from any
// goroutine; subscribers see updates in call order.
type Presenter struct {
	bus    *Bus
	source EventSource
}

// NewPresenter creates a presenter that publishes with the given source.
func NewPresenter(bus *Bus, source EventSource) *Presenter {
	return &Presenter{bus: bus, source: source}
}

func (p *Presenter) SetStatus(text string) {
	p.bus.Publish(NewTypedEvent(p.source, StatusPayload{Text: text}))
}

func (p *Presenter) AppendToken(text string) {
	p.bus.Publish(NewTypedEvent(p.source, TokenPayload{Text: text}))
}

func (p *Presenter) ClearOutput() {
	p.bus.Publish(NewTypedEvent(p.source, ClearPayload{}))
}

func (p *Presenter) SetMode(name string) {
	p.bus.Publish(NewTypedEvent(p.source, ModePayload{Name: name}))
}

// Emit publishes an arbitrary typed payload.
func (p *Presenter) Emit(payload EventPayload) {
	p.bus.Publish(NewTypedEvent(p.source, payload))
}
