package doorbell

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/gpio"
	"github.com/barnybug/doorbell/lib/mail"
	"github.com/barnybug/doorbell/pubsub/dummy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const wait = 2 * time.Second

type recorder struct {
	lock  sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Calls() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Count(call string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (r *recorder) Has(call string) func() bool {
	return func() bool { return r.Count(call) > 0 }
}

type fakePlayer struct {
	*recorder
	err error
}

func (p *fakePlayer) Play() error {
	p.add("sound")
	return p.err
}

type fakeViewer struct {
	*recorder
	running bool
	url     string
}

func (v *fakeViewer) Open(url string) error {
	if v.running {
		return ErrViewerRunning
	}
	v.add("open")
	v.running = true
	v.url = url
	return nil
}

func (v *fakeViewer) Close() error {
	v.add("close")
	v.running = false
	return nil
}

func (v *fakeViewer) Running() bool {
	return v.running
}

type fakeScreen struct {
	*recorder
}

func (s *fakeScreen) On() error {
	s.add("screen on")
	return nil
}

func (s *fakeScreen) Off() error {
	s.add("screen off")
	return nil
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(msg *mail.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

type harness struct {
	*Controller
	input  *gpio.MockInput
	calls  *recorder
	mailer *mockSender
	pub    *dummy.Publisher
	cancel context.CancelFunc
	done   chan error
}

func newHarness(t *testing.T, conf *config.Config) *harness {
	input := gpio.NewMockInput()
	pub := &dummy.Publisher{}
	c, err := NewController(conf, input, pub)
	require.NoError(t, err)
	h := &harness{Controller: c, input: input, calls: &recorder{}, mailer: &mockSender{}, pub: pub}
	c.Sound = &fakePlayer{recorder: h.calls}
	c.Viewer = &fakeViewer{recorder: h.calls}
	c.Screen = &fakeScreen{recorder: h.calls}
	c.Mailer = h.mailer
	return h
}

func testConfig() *config.Config {
	conf := config.ExampleConfig()
	conf.Doorbell.Debounce.Duration = 0
	conf.Meeting.Active.Duration = 50 * time.Millisecond
	return conf
}

func (h *harness) start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.Run(ctx) }()
	require.Eventually(t, h.input.Watching, wait, time.Millisecond)
}

func (h *harness) stop(t *testing.T) {
	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(wait):
		t.Fatal("controller did not stop")
	}
}

func (h *harness) expectEmail(err error) {
	h.mailer.On("Send", mock.Anything).Run(func(mock.Arguments) {
		h.calls.add("email")
	}).Return(err)
}

func TestRingCycle(t *testing.T) {
	h := newHarness(t, testConfig())
	h.expectEmail(nil)
	h.start(t)
	assert.Equal(t, "Idle", h.State())

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	require.Eventually(t, func() bool { return h.State() == "Idle" }, wait, time.Millisecond)
	h.stop(t)

	assert.Equal(t, []string{
		"screen off",
		"sound", "open", "email", "screen on",
		"close", "screen off",
		"screen on",
	}, h.calls.Calls())
	assert.True(t, h.input.Closed())

	h.mailer.AssertNumberOfCalls(t, "Send", 1)
	msg := h.mailer.Calls[0].Arguments.Get(0).(*mail.Message)
	assert.Equal(t, "Wifi Doorbell", msg.Subject)
	assert.Equal(t, "me@example.com", msg.To)
	assert.Contains(t, msg.Body, "https://meet.jit.si/")
	assert.Contains(t, msg.Body, "http://192.168.1.20/unlock")

	assert.Equal(t, []string{"ring", "hangup"}, h.pub.Commands("doorbell"))
	ring := h.pub.Events()[0]
	assert.Equal(t, "doorbell.front", ring.Device())
	assert.Equal(t, h.Viewer.(*fakeViewer).url, ring.StringField("meeting"))
}

func TestMeetingLastsActiveWindow(t *testing.T) {
	conf := testConfig()
	conf.Meeting.Active.Duration = 100 * time.Millisecond
	h := newHarness(t, conf)
	h.expectEmail(nil)
	h.start(t)
	defer h.stop(t)

	started := time.Now()
	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	assert.True(t, time.Since(started) >= 100*time.Millisecond)
}

func TestPressWhileRingingIgnored(t *testing.T) {
	conf := testConfig()
	conf.Meeting.Active.Duration = 200 * time.Millisecond
	h := newHarness(t, conf)
	h.expectEmail(nil)
	h.start(t)
	defer h.stop(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("screen on"), wait, time.Millisecond)
	assert.Equal(t, "Ringing", h.State())
	h.input.Press()
	h.input.Press()
	h.Ring()

	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.calls.Count("open"))
	assert.Equal(t, 1, h.calls.Count("sound"))
	h.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestRingAgainAfterHangup(t *testing.T) {
	h := newHarness(t, testConfig())
	h.expectEmail(nil)
	h.start(t)
	defer h.stop(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	require.Eventually(t, func() bool { return h.State() == "Idle" }, wait, time.Millisecond)
	h.input.Press()
	require.Eventually(t, func() bool { return h.calls.Count("close") == 2 }, wait, time.Millisecond)
	assert.Equal(t, 2, h.calls.Count("open"))
}

func TestDebounce(t *testing.T) {
	conf := testConfig()
	conf.Doorbell.Debounce.Duration = time.Hour
	h := newHarness(t, conf)
	h.expectEmail(nil)
	h.start(t)
	defer h.stop(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	require.Eventually(t, func() bool { return h.State() == "Idle" }, wait, time.Millisecond)
	h.input.Press()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, h.calls.Count("open"))
}

func TestEmailDisabled(t *testing.T) {
	conf := testConfig()
	conf.Email.Enabled = false
	h := newHarness(t, conf)
	h.start(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	h.stop(t)
	h.mailer.AssertNotCalled(t, "Send", mock.Anything)
	assert.Equal(t, []string{"screen off", "sound", "open", "screen on", "close", "screen off", "screen on"}, h.calls.Calls())
}

func TestRingDisabled(t *testing.T) {
	conf := testConfig()
	conf.Ring.Enabled = false
	h := newHarness(t, conf)
	h.expectEmail(nil)
	h.start(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	h.stop(t)
	assert.Equal(t, 0, h.calls.Count("sound"))
	assert.Equal(t, 1, h.calls.Count("email"))
}

func TestFailuresDoNotStopCycle(t *testing.T) {
	h := newHarness(t, testConfig())
	h.Sound.(*fakePlayer).err = errors.New("no audio device")
	h.expectEmail(errors.New("535 authentication failed"))
	h.start(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	h.stop(t)
	assert.Equal(t, []string{
		"screen off",
		"sound", "open", "email", "screen on",
		"close", "screen off",
		"screen on",
	}, h.calls.Calls())
}

func TestViewerAlreadyRunning(t *testing.T) {
	h := newHarness(t, testConfig())
	h.Viewer.(*fakeViewer).running = true
	h.expectEmail(nil)
	h.start(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	h.stop(t)
	assert.Equal(t, 0, h.calls.Count("open"))
	assert.Equal(t, 1, h.calls.Count("email"))
}

func TestEndMeeting(t *testing.T) {
	conf := testConfig()
	conf.Meeting.Active.Duration = time.Hour
	h := newHarness(t, conf)
	h.expectEmail(nil)
	h.start(t)
	defer h.stop(t)

	// no meeting to end
	h.EndMeeting()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"screen off"}, h.calls.Calls())

	h.input.Press()
	require.Eventually(t, h.calls.Has("screen on"), wait, time.Millisecond)
	assert.Equal(t, "Ringing", h.State())

	h.EndMeeting()
	require.Eventually(t, h.calls.Has("close"), wait, time.Millisecond)
	require.Eventually(t, func() bool { return h.State() == "Idle" }, wait, time.Millisecond)
}

func TestShutdownWhileRinging(t *testing.T) {
	conf := testConfig()
	conf.Meeting.Active.Duration = time.Hour
	h := newHarness(t, conf)
	h.expectEmail(nil)
	h.start(t)

	h.input.Press()
	require.Eventually(t, h.calls.Has("screen on"), wait, time.Millisecond)
	h.stop(t)

	calls := h.calls.Calls()
	assert.Equal(t, []string{"close", "screen off", "screen on"}, calls[len(calls)-3:])
	assert.True(t, h.input.Closed())
	assert.Equal(t, "Idle", h.State())
	assert.Equal(t, []string{"ring", "hangup"}, h.pub.Commands("doorbell"))
}

func TestShutdownIdle(t *testing.T) {
	h := newHarness(t, testConfig())
	h.start(t)
	h.stop(t)
	assert.Equal(t, []string{"screen off", "screen on"}, h.calls.Calls())
	assert.True(t, h.input.Closed())
	assert.Empty(t, h.pub.Events())
}

type brokenInput struct {
	closed bool
}

func (i *brokenInput) Watch(fn func()) error {
	return errors.New("edge detection unavailable")
}

func (i *brokenInput) Close() error {
	i.closed = true
	return nil
}

func TestWatchFailure(t *testing.T) {
	input := &brokenInput{}
	c, err := NewController(testConfig(), input, &dummy.Publisher{})
	require.NoError(t, err)
	c.Screen = &fakeScreen{recorder: &recorder{}}

	err = c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching doorbell button")
	assert.True(t, input.closed)
}

func TestTriggerMatch(t *testing.T) {
	assert.True(t, evPress.Match("event=='press'"))
	assert.False(t, evElapsed.Match("event=='press'"))
	assert.False(t, evPress.Match("event=="))
	assert.False(t, evPress.Match("1 + 1"))
}
