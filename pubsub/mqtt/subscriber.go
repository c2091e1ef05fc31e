package mqtt

import (
	"log"
	"strings"
	"sync"

	"github.com/barnybug/doorbell/pubsub"
	MQTT "github.com/eclipse/paho.mqtt.golang"
)

type eventChannel struct {
	C     chan *pubsub.Event
	topic string
}

// Subscriber struct
type Subscriber struct {
	broker       *Broker
	channels     []eventChannel
	channelsLock sync.Mutex
}

func NewSubscriber(broker *Broker) *Subscriber {
	return &Subscriber{broker: broker}
}

func (self *Subscriber) ID() string {
	return self.broker.ID()
}

func (self *Subscriber) publishHandler(client MQTT.Client, msg MQTT.Message) {
	topic := strings.TrimPrefix(msg.Topic(), Prefix)
	event := pubsub.Parse(string(msg.Payload()), topic)
	if event == nil {
		log.Printf("Ignored: '%s'\n", msg.Payload())
		return
	}
	event.SetRetained(msg.Retained())
	self.channelsLock.Lock()
	defer self.channelsLock.Unlock()
	for _, ch := range self.channels {
		if ch.topic != topic {
			continue
		}
		select {
		case ch.C <- event:
		default:
			log.Println("Subscriber full, dropped:", event)
		}
	}
}

func (self *Subscriber) Subscribe(topic string) <-chan *pubsub.Event {
	ch := eventChannel{
		C:     make(chan *pubsub.Event, 16),
		topic: topic,
	}
	self.channelsLock.Lock()
	self.channels = append(self.channels, ch)
	self.channelsLock.Unlock()

	if token := self.broker.client.Subscribe(Prefix+topic, 1, self.publishHandler); token.Wait() && token.Error() != nil {
		log.Println("Error subscribing:", token.Error())
	}
	return ch.C
}

func (self *Subscriber) Close(channel <-chan *pubsub.Event) {
	var closing []eventChannel
	var channels []eventChannel
	self.channelsLock.Lock()
	for _, ch := range self.channels {
		if channel == (<-chan *pubsub.Event)(ch.C) {
			closing = append(closing, ch)
		} else {
			channels = append(channels, ch)
		}
	}
	self.channels = channels
	remaining := map[string]bool{}
	for _, ch := range channels {
		remaining[ch.topic] = true
	}
	self.channelsLock.Unlock()

	// the lock is not held here, as the handler may be blocked on it
	for _, ch := range closing {
		if remaining[ch.topic] {
			close(ch.C)
			continue
		}
		if token := self.broker.client.Unsubscribe(Prefix + ch.topic); token.Wait() && token.Error() != nil {
			log.Println("Error unsubscribing:", token.Error())
		}
		close(ch.C)
	}
}
