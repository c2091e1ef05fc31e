package doorbell

import (
	"net/url"
	"strings"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/processes"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrViewerRunning  = errors.New("meeting viewer already running")
	ErrMeetingStarted = errors.New("meeting already started")
)

type MeetingState int

const (
	NotStarted MeetingState = iota
	Running
	Ended
)

var meetingStates = [...]string{"not started", "running", "ended"}

func (s MeetingState) String() string {
	return meetingStates[s]
}

// Meeting is a video call session for one ring.
type Meeting struct {
	ID    string
	Host  string
	state MeetingState
}

// NewMeeting uses the configured meeting id, or a random uuid if none is set.
func NewMeeting(conf config.MeetingConf) *Meeting {
	id := conf.Id
	if id == "" {
		id = uuid.New().String()
	}
	return &Meeting{ID: id, Host: conf.Host}
}

func (m *Meeting) URL() string {
	return strings.TrimRight(m.Host, "/") + "/" + url.PathEscape(m.ID)
}

func (m *Meeting) State() MeetingState {
	return m.state
}

// Start opens the meeting in the viewer.
func (m *Meeting) Start(v Viewer) error {
	if m.state != NotStarted {
		return ErrMeetingStarted
	}
	if err := v.Open(m.URL()); err != nil {
		return err
	}
	m.state = Running
	return nil
}

// End closes the viewer. It is safe to call when the meeting never started.
func (m *Meeting) End(v Viewer) error {
	m.state = Ended
	return v.Close()
}

// Viewer displays a meeting url.
type Viewer interface {
	Open(url string) error
	Close() error
	Running() bool
}

// ProcessViewer runs a browser, eg chromium in kiosk mode, with the meeting
// url as its last argument.
type ProcessViewer struct {
	Command []string
	process *processes.Process
}

func (v *ProcessViewer) Open(url string) error {
	if v.Running() {
		return ErrViewerRunning
	}
	v.process = processes.Command(v.Command, url)
	return v.process.Start()
}

func (v *ProcessViewer) Close() error {
	if v.process == nil {
		return nil
	}
	return v.process.Terminate()
}

func (v *ProcessViewer) Running() bool {
	return v.process != nil && v.process.Running()
}
