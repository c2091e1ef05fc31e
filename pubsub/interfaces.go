package pubsub

type Publisher interface {
	ID() string
	Emit(ev *Event)
}

type Subscriber interface {
	ID() string
	// Subscribe to events on an exact topic.
	Subscribe(topic string) <-chan *Event
	Close(<-chan *Event)
}

type discard struct{}

func (discard) ID() string {
	return "discard"
}

func (discard) Emit(ev *Event) {}

// Discard is a Publisher dropping all events, used when no broker is
// configured.
var Discard Publisher = discard{}
