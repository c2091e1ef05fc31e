// Package pubsub carries doorbell and lock events to and from a message
// broker, so other home automation (eg Home Assistant) can react to rings and
// unlocks.
package pubsub

import (
	"encoding/json"
	"fmt"
	"time"
)

type Fields map[string]interface{}

type Event struct {
	Topic     string
	Timestamp time.Time
	Fields    Fields
	Retained  bool
}

func NewEvent(topic string, fields Fields) *Event {
	timestamp := time.Now().UTC()
	if fields == nil {
		fields = Fields{}
	}
	if ts, ok := fields["timestamp"].(string); ok {
		delete(fields, "timestamp")
		timestamp, _ = time.Parse(TimeFormat, ts)
	}
	return &Event{Topic: topic, Timestamp: timestamp, Fields: fields}
}

func NewCommand(device string, command string) *Event {
	fields := Fields{
		"device":  device,
		"command": command,
	}
	return NewEvent(CommandTopic(device), fields)
}

// CommandTopic is the topic commands for device are sent to.
func CommandTopic(device string) string {
	return fmt.Sprintf("command/%s", device)
}

const TimeFormat = "2006-01-02 15:04:05.000"

func (event *Event) Map() map[string]interface{} {
	data := make(map[string]interface{})
	data["topic"] = event.Topic
	data["timestamp"] = event.Timestamp.Format(TimeFormat)
	for k, v := range event.Fields {
		data[k] = v
	}
	return data
}

func (event *Event) Bytes() []byte {
	v, _ := json.Marshal(event.Map())
	return v
}

func (event *Event) String() string {
	return string(event.Bytes())
}

func (event *Event) StringField(name string) string {
	ret, _ := event.Fields[name].(string)
	return ret
}

func (event *Event) SetRetained(retained bool) {
	event.Retained = retained
}

func (event *Event) Device() string {
	return event.StringField("device")
}

func (event *Event) Command() string {
	return event.StringField("command")
}

func (event *Event) State() string {
	return event.StringField("state")
}

// Parse a json event. The topic is taken from the message, falling back to
// topic if absent.
func Parse(msg string, topic string) *Event {
	var fields map[string]interface{}
	err := json.Unmarshal([]byte(msg), &fields)
	if err != nil {
		return nil
	}
	if t, ok := fields["topic"].(string); ok {
		topic = t
	}
	delete(fields, "topic")
	return NewEvent(topic, fields)
}
