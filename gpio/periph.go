package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func periphPin(n int) (pgpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to init periph")
	}
	name := fmt.Sprintf("GPIO%d", n)
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Errorf("pin not recognised: %s", name)
	}
	return pin, nil
}

type PeriphInput struct {
	pin  pgpio.PinIO
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewPeriphInput(n int) (*PeriphInput, error) {
	pin, err := periphPin(n)
	if err != nil {
		return nil, err
	}
	if err := pin.In(pgpio.PullUp, pgpio.RisingEdge); err != nil {
		return nil, errors.Wrapf(err, "setting up %s", pin)
	}
	return &PeriphInput{pin: pin, stop: make(chan struct{})}, nil
}

func (self *PeriphInput) Watch(fn func()) error {
	if self.done != nil {
		return ErrWatching
	}
	self.done = make(chan struct{})
	go self.listen(fn)
	return nil
}

func (self *PeriphInput) listen(fn func()) {
	defer close(self.done)
	for {
		edge := self.pin.WaitForEdge(time.Second)
		select {
		case <-self.stop:
			return
		default:
		}
		if edge {
			fn()
		}
	}
}

func (self *PeriphInput) Close() error {
	var err error
	self.once.Do(func() {
		close(self.stop)
		// unblocks WaitForEdge
		err = self.pin.Halt()
		if self.done != nil {
			<-self.done
		}
		if e := self.pin.In(pgpio.PullNoChange, pgpio.NoEdge); e != nil && err == nil {
			err = e
		}
	})
	return errors.Wrap(err, "releasing input")
}

type PeriphOutput struct {
	pin pgpio.PinIO
}

func NewPeriphOutput(n int) (*PeriphOutput, error) {
	pin, err := periphPin(n)
	if err != nil {
		return nil, err
	}
	if err := pin.Out(pgpio.Low); err != nil {
		return nil, errors.Wrapf(err, "setting up %s", pin)
	}
	return &PeriphOutput{pin: pin}, nil
}

func (self *PeriphOutput) Write(high bool) error {
	return errors.Wrapf(self.pin.Out(pgpio.Level(high)), "writing %s", self.pin)
}

func (self *PeriphOutput) Close() error {
	return self.Write(false)
}
