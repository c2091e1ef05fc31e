package lock

import (
	"context"
	"log"
	"time"

	"github.com/barnybug/doorbell/gpio"
	"github.com/barnybug/doorbell/pubsub"
	"github.com/pkg/errors"
)

// Lock drives the door strike relay. Unlocks are serialized: a caller arriving
// mid-unlock waits for the relay to drop and then runs its own cycle.
type Lock struct {
	Output    gpio.Output
	Duration  time.Duration
	Device    string
	Publisher pubsub.Publisher

	busy chan struct{}
}

func NewLock(output gpio.Output, duration time.Duration, device string, pub pubsub.Publisher) *Lock {
	return &Lock{
		Output:    output,
		Duration:  duration,
		Device:    device,
		Publisher: pub,
		busy:      make(chan struct{}, 1),
	}
}

// Unlock energizes the relay for Duration then releases it. Cancelling ctx
// relocks immediately. The relay is always left low on return.
func (self *Lock) Unlock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case self.busy <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-self.busy }()

	if err := self.Output.Write(true); err != nil {
		self.release()
		return errors.Wrap(err, "energizing relay")
	}
	log.Printf("Door unlocked for %s", self.Duration)
	self.emit("unlocked")

	timer := time.NewTimer(self.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		log.Println("Relocking early")
	}

	if err := self.release(); err != nil {
		return err
	}
	log.Println("Door locked")
	self.emit("locked")
	return nil
}

func (self *Lock) release() error {
	return errors.Wrap(self.Output.Write(false), "releasing relay")
}

// Close leaves the relay low and releases the pin.
func (self *Lock) Close() error {
	if err := self.release(); err != nil {
		log.Println(err)
	}
	return self.Output.Close()
}

func (self *Lock) emit(state string) {
	self.Publisher.Emit(pubsub.NewEvent("lock", pubsub.Fields{
		"device": self.Device,
		"state":  state,
	}))
}
