package mqtt

import (
	"strings"
	"testing"

	"github.com/barnybug/doorbell/pubsub"
	"github.com/stretchr/testify/assert"
)

var (
	_ pubsub.Publisher  = (*Publisher)(nil)
	_ pubsub.Subscriber = (*Subscriber)(nil)
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions("tcp://127.0.0.1:1883", "lock")
	assert.True(t, strings.HasPrefix(opts.ClientID, "doorbell/lock-"))
	assert.Len(t, opts.Servers, 1)
	assert.Equal(t, "127.0.0.1:1883", opts.Servers[0].Host)
	assert.True(t, opts.CleanSession)
}
