// Service to ring the doorbell: watches the button, starts a meeting and
// notifies the owner by email.
package doorbell

import (
	"context"
	"log"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/gpio"
	"github.com/barnybug/doorbell/pubsub"
	"github.com/pkg/errors"
)

type Service struct {
	conf *config.Config
	pub  pubsub.Publisher
	sub  pubsub.Subscriber

	// OpenInput opens the button pin. Replaced in tests.
	OpenInput func(driver string, pin int) (gpio.Input, error)
}

// New service. sub may be nil when no broker is configured.
func New(conf *config.Config, pub pubsub.Publisher, sub pubsub.Subscriber) *Service {
	return &Service{conf: conf, pub: pub, sub: sub, OpenInput: gpio.OpenInput}
}

func (self *Service) ID() string {
	return "doorbell"
}

func (self *Service) Run(ctx context.Context) error {
	if err := self.conf.ValidateDoorbell(); err != nil {
		return err
	}
	input, err := self.OpenInput(self.conf.Doorbell.Driver, self.conf.Doorbell.Pin)
	if err != nil {
		return errors.Wrapf(err, "opening doorbell pin %d (try running as root)", self.conf.Doorbell.Pin)
	}
	controller, err := NewController(self.conf, input, self.pub)
	if err != nil {
		input.Close()
		return err
	}
	if self.sub != nil {
		go self.commands(ctx, controller)
	}
	return controller.Run(ctx)
}

// commands rings or hangs up on request over the broker.
func (self *Service) commands(ctx context.Context, controller *Controller) {
	topic := pubsub.CommandTopic(self.conf.Doorbell.Device)
	ch := self.sub.Subscribe(topic)
	defer self.sub.Close(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch ev.Command() {
			case "ring":
				controller.Ring()
			case "hangup":
				controller.EndMeeting()
			default:
				log.Printf("Unknown command %q on %s", ev.Command(), topic)
			}
		}
	}
}
