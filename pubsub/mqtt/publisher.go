package mqtt

import (
	"log"

	"github.com/barnybug/doorbell/pubsub"
)

// Publisher for mqtt
type Publisher struct {
	broker *Broker
}

// ID of Publisher
func (pub *Publisher) ID() string {
	return pub.broker.ID()
}

// Emit an event
func (pub *Publisher) Emit(ev *pubsub.Event) {
	topic := Prefix + ev.Topic
	token := pub.broker.client.Publish(topic, 1, ev.Retained, ev.Bytes())
	if token.Wait() && token.Error() != nil {
		log.Println("Error publishing:", token.Error())
	}
}
