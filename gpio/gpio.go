// Package gpio drives the doorbell hardware: the push button input and the
// door strike relay output.
//
// Two drivers are available:
//
// - rpio: memory mapped /dev/gpiomem, inputs are polled for changes
//
// - periph: periph.io, inputs use kernel edge detection
package gpio

import (
	"github.com/pkg/errors"
)

// Input is a digital input pin reporting rising edges.
type Input interface {
	// Watch registers fn to be called on every rising edge. fn is called
	// from the driver goroutine.
	Watch(fn func()) error
	// Close stops watching and releases the pin.
	Close() error
}

// Output is a digital output pin, such as a relay.
type Output interface {
	Write(high bool) error
	Close() error
}

var ErrWatching = errors.New("input already watched")

// OpenInput opens pin n as a pulled-up input using the named driver.
func OpenInput(driver string, n int) (Input, error) {
	switch driver {
	case "rpio":
		return NewRpioInput(n)
	case "periph":
		return NewPeriphInput(n)
	}
	return nil, errors.Errorf("unknown gpio driver: %s", driver)
}

// OpenOutput opens pin n as an output, initially low.
func OpenOutput(driver string, n int) (Output, error) {
	switch driver {
	case "rpio":
		return NewRpioOutput(n)
	case "periph":
		return NewPeriphOutput(n)
	}
	return nil, errors.Errorf("unknown gpio driver: %s", driver)
}
