package dummy

import (
	"sync"

	"github.com/barnybug/doorbell/pubsub"
)

// Subscriber for testing. Events are delivered with Inject.
type Subscriber struct {
	lock     sync.Mutex
	channels map[string][]chan *pubsub.Event
}

// ID of Subscriber
func (sub *Subscriber) ID() string {
	return "dummy"
}

func (sub *Subscriber) Subscribe(topic string) <-chan *pubsub.Event {
	sub.lock.Lock()
	defer sub.lock.Unlock()
	if sub.channels == nil {
		sub.channels = map[string][]chan *pubsub.Event{}
	}
	ch := make(chan *pubsub.Event, 16)
	sub.channels[topic] = append(sub.channels[topic], ch)
	return ch
}

// Subscribed reports whether anything is listening on topic.
func (sub *Subscriber) Subscribed(topic string) bool {
	sub.lock.Lock()
	defer sub.lock.Unlock()
	return len(sub.channels[topic]) > 0
}

// Inject delivers ev to subscribers of its topic.
func (sub *Subscriber) Inject(ev *pubsub.Event) {
	sub.lock.Lock()
	defer sub.lock.Unlock()
	for _, ch := range sub.channels[ev.Topic] {
		ch <- ev
	}
}

// Close the channel
func (sub *Subscriber) Close(channel <-chan *pubsub.Event) {
	sub.lock.Lock()
	defer sub.lock.Unlock()
	for topic, chs := range sub.channels {
		var keep []chan *pubsub.Event
		for _, ch := range chs {
			if (<-chan *pubsub.Event)(ch) == channel {
				close(ch)
			} else {
				keep = append(keep, ch)
			}
		}
		sub.channels[topic] = keep
	}
}
