package gpio

import (
	"sync"
	"time"

	"github.com/barnybug/ener314/rpio"
	"github.com/pkg/errors"
)

const PollInterval = time.Millisecond * 20

var (
	rpioLock sync.Mutex
	rpioRefs int
)

// rpio maps /dev/gpiomem once for all pins in the process.
func rpioOpen() error {
	rpioLock.Lock()
	defer rpioLock.Unlock()
	if rpioRefs == 0 {
		if err := rpio.Open(); err != nil {
			return errors.Wrap(err, "couldn't open /dev/gpiomem")
		}
	}
	rpioRefs++
	return nil
}

func rpioClose() {
	rpioLock.Lock()
	defer rpioLock.Unlock()
	rpioRefs--
	if rpioRefs == 0 {
		rpio.Close()
	}
}

type RpioInput struct {
	pin  rpio.Pin
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewRpioInput(n int) (*RpioInput, error) {
	if err := rpioOpen(); err != nil {
		return nil, err
	}
	pin := rpio.Pin(n)
	pin.Input()
	pin.PullUp()
	return &RpioInput{pin: pin, stop: make(chan struct{})}, nil
}

func (self *RpioInput) Watch(fn func()) error {
	if self.done != nil {
		return ErrWatching
	}
	self.done = make(chan struct{})
	go self.listen(fn)
	return nil
}

func (self *RpioInput) listen(fn func()) {
	defer close(self.done)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	state := self.pin.Read()
	for {
		select {
		case <-self.stop:
			return
		case <-ticker.C:
		}
		current := self.pin.Read()
		if current != state {
			state = current
			if current == rpio.High {
				fn()
			}
		}
	}
}

func (self *RpioInput) Close() error {
	self.once.Do(func() {
		close(self.stop)
		if self.done != nil {
			<-self.done
		}
		self.pin.PullOff()
		rpioClose()
	})
	return nil
}

type RpioOutput struct {
	pin  rpio.Pin
	once sync.Once
}

func NewRpioOutput(n int) (*RpioOutput, error) {
	if err := rpioOpen(); err != nil {
		return nil, err
	}
	pin := rpio.Pin(n)
	pin.Output()
	pin.Low()
	return &RpioOutput{pin: pin}, nil
}

func (self *RpioOutput) Write(high bool) error {
	state := rpio.Low
	if high {
		state = rpio.High
	}
	self.pin.Write(state)
	return nil
}

func (self *RpioOutput) Close() error {
	self.once.Do(func() {
		self.pin.Low()
		rpioClose()
	})
	return nil
}
