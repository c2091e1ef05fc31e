// Package mqtt publishes and subscribes to events on an MQTT broker. All
// topics live under "doorbell/".
package mqtt

import (
	"fmt"
	"os"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const Prefix = "doorbell/"

type Broker struct {
	broker string
	client MQTT.Client
}

func clientOptions(broker, name string) *MQTT.ClientOptions {
	// generate a client id
	hostname, _ := os.Hostname()
	clientID := fmt.Sprintf("doorbell/%s-%s-%d", name, hostname, os.Getpid())
	opts := MQTT.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	return opts
}

func NewBroker(broker, name string) (*Broker, error) {
	client := MQTT.NewClient(clientOptions(broker, name))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connecting to %s", broker)
	}
	return &Broker{broker, client}, nil
}

func (self *Broker) ID() string {
	return "mqtt: " + self.broker
}

func (self *Broker) Publisher() *Publisher {
	return &Publisher{broker: self}
}

func (self *Broker) Subscriber() *Subscriber {
	return NewSubscriber(self)
}

func (self *Broker) Close() {
	self.client.Disconnect(250)
}
