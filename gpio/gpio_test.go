package gpio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	_ Input  = (*RpioInput)(nil)
	_ Input  = (*PeriphInput)(nil)
	_ Input  = (*MockInput)(nil)
	_ Output = (*RpioOutput)(nil)
	_ Output = (*PeriphOutput)(nil)
	_ Output = (*MockOutput)(nil)
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestDebounce(t *testing.T) {
	clock := &fakeClock{time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)}
	count := 0
	fn := debounce(10*time.Second, clock.Now, func() { count++ })

	fn()
	assert.Equal(t, 1, count)

	// bounces within the window are dropped
	clock.Advance(time.Millisecond)
	fn()
	clock.Advance(9 * time.Second)
	fn()
	assert.Equal(t, 1, count)

	// window measured from the last accepted press
	clock.Advance(time.Second)
	fn()
	assert.Equal(t, 2, count)
}

func TestDebounceZero(t *testing.T) {
	count := 0
	fn := Debounce(0, func() { count++ })
	fn()
	fn()
	assert.Equal(t, 2, count)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := OpenInput("wiringpi", 19)
	assert.Error(t, err)
	_, err = OpenOutput("wiringpi", 16)
	assert.Error(t, err)
}

func TestMockInput(t *testing.T) {
	in := NewMockInput()
	count := 0
	in.Press()
	assert.NoError(t, in.Watch(func() { count++ }))
	assert.Equal(t, ErrWatching, in.Watch(func() {}))
	in.Press()
	assert.Equal(t, 1, count)
	in.Close()
	in.Press()
	assert.Equal(t, 1, count)
	assert.True(t, in.Closed())
}

func TestMockOutput(t *testing.T) {
	out := &MockOutput{}
	out.Write(true)
	assert.True(t, out.High())
	out.Write(false)
	assert.Equal(t, []bool{true, false}, out.Writes())
	out.Fail = true
	assert.Error(t, out.Write(true))
	assert.False(t, out.High())
}
