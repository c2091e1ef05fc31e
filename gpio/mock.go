package gpio

import (
	"sync"

	"github.com/pkg/errors"
)

// MockInput is an Input for testing, or running without hardware.
type MockInput struct {
	lock   sync.Mutex
	fn     func()
	closed bool
}

func NewMockInput() *MockInput {
	return &MockInput{}
}

func (self *MockInput) Watch(fn func()) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.fn != nil {
		return ErrWatching
	}
	self.fn = fn
	return nil
}

// Press simulates a rising edge. It is a no-op when not watched or closed.
func (self *MockInput) Press() {
	self.lock.Lock()
	fn := self.fn
	if self.closed {
		fn = nil
	}
	self.lock.Unlock()
	if fn != nil {
		fn()
	}
}

// Watching reports whether a callback is registered and the input is open.
func (self *MockInput) Watching() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.fn != nil && !self.closed
}

func (self *MockInput) Close() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.closed = true
	return nil
}

func (self *MockInput) Closed() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.closed
}

// MockOutput records writes. Set Fail to make writes error.
type MockOutput struct {
	lock   sync.Mutex
	high   bool
	writes []bool
	closed bool
	Fail   bool
}

var ErrMockFailure = errors.New("mock output failure")

func (self *MockOutput) Write(high bool) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.Fail {
		return ErrMockFailure
	}
	self.high = high
	self.writes = append(self.writes, high)
	return nil
}

func (self *MockOutput) High() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.high
}

func (self *MockOutput) Writes() []bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]bool(nil), self.writes...)
}

func (self *MockOutput) Close() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.high = false
	self.closed = true
	return nil
}

func (self *MockOutput) Closed() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.closed
}
