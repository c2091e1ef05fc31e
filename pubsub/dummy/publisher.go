package dummy

import (
	"sync"

	"github.com/barnybug/doorbell/pubsub"
)

// Dummy Publisher for testing
type Publisher struct {
	lock   sync.Mutex
	events []*pubsub.Event
}

func (self *Publisher) ID() string {
	return "dummy"
}

func (self *Publisher) Emit(ev *pubsub.Event) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.events = append(self.events, ev)
}

// Events emitted so far.
func (self *Publisher) Events() []*pubsub.Event {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]*pubsub.Event(nil), self.events...)
}

// Commands returns the command field of each event on topic.
func (self *Publisher) Commands(topic string) []string {
	var ret []string
	for _, ev := range self.Events() {
		if ev.Topic == topic {
			ret = append(ret, ev.Command())
		}
	}
	return ret
}
