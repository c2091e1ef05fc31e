package doorbell

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/gpio"
	"github.com/barnybug/doorbell/lib/mail"
	"github.com/barnybug/doorbell/pubsub"
	"github.com/barnybug/doorbell/util"
	"github.com/barnybug/gofsm"
	"github.com/pkg/errors"
)

// Controller runs the ring cycle: a press plays the ring, starts a meeting,
// emails the owner and switches the screen on until the meeting elapses.
//
// All side effects happen on the goroutine calling Run, so at most one
// meeting is active at a time.
type Controller struct {
	Input     gpio.Input
	Sound     Player
	Viewer    Viewer
	Screen    Screen
	Mailer    mail.Sender
	Publisher pubsub.Publisher

	conf     *config.Config
	automata *gofsm.Automata
	fsm      *gofsm.Automaton
	presses  chan struct{}
	end      chan struct{}
	deadline *time.Timer
	meeting  *Meeting

	stateLock sync.Mutex
	state     string
}

func NewController(conf *config.Config, input gpio.Input, pub pubsub.Publisher) (*Controller, error) {
	automata, err := gofsm.Load([]byte(automatonYaml))
	if err != nil {
		return nil, errors.Wrap(err, "loading doorbell automaton")
	}
	fsm := automata.Automaton["doorbell"]
	return &Controller{
		Input:     input,
		Sound:     &CommandPlayer{Command: conf.Ring.Player, File: conf.SoundPath()},
		Viewer:    &ProcessViewer{Command: conf.Meeting.Viewer},
		Screen:    &CommandScreen{PowerOn: conf.Screen.Power_On, PowerOff: conf.Screen.Power_Off},
		Mailer:    mail.NewSMTPSender(conf.Email.Server, conf.Email.From, conf.Email.Password),
		Publisher: pub,
		conf:      conf,
		automata:  automata,
		fsm:       fsm,
		presses:   make(chan struct{}, 1),
		end:       make(chan struct{}, 1),
		state:     fsm.State.Name,
	}, nil
}

// Ring requests a ring cycle. It never blocks: if a press is already pending
// this one is dropped, and presses while Ringing are ignored.
func (self *Controller) Ring() {
	select {
	case self.presses <- struct{}{}:
	default:
	}
}

// EndMeeting hangs up the current meeting before its active window elapses.
func (self *Controller) EndMeeting() {
	select {
	case self.end <- struct{}{}:
	default:
	}
}

// State is the current automaton state, Idle or Ringing.
func (self *Controller) State() string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.state
}

// Run watches the button and processes rings until ctx is cancelled. On
// return any meeting is hung up, the input released and the screen left on.
func (self *Controller) Run(ctx context.Context) error {
	log.Println("Starting doorbell...")
	self.screen(false)
	defer self.cleanup()

	press := gpio.Debounce(self.conf.Doorbell.Debounce.Duration, self.Ring)
	if err := self.Input.Watch(press); err != nil {
		return errors.Wrap(err, "watching doorbell button")
	}
	log.Println("Waiting for doorbell rings...")

	for {
		select {
		case <-ctx.Done():
			log.Println("Safely shutting down...")
			self.shutdown()
			return nil
		case <-self.presses:
			self.process(evPress)
		case <-self.timeout():
			self.deadline = nil
			self.process(evElapsed)
		case <-self.end:
			self.process(evElapsed)
		case action := <-self.automata.Actions:
			self.perform(action)
		case change := <-self.automata.Changes:
			log.Printf("%s->%s (after %s)", change.Old, change.New, util.ShortDuration(change.Duration))
		}
	}
}

// timeout is nil, blocking forever, when no meeting is active.
func (self *Controller) timeout() <-chan time.Time {
	if self.deadline == nil {
		return nil
	}
	return self.deadline.C
}

func (self *Controller) process(ev trigger) {
	self.fsm.Process(ev)
	self.stateLock.Lock()
	self.state = self.fsm.State.Name
	self.stateLock.Unlock()
}

func (self *Controller) perform(action gofsm.Action) {
	switch action.Name {
	case actionRing:
		self.ring()
	case actionHangup:
		self.hangup()
	default:
		log.Println("Unknown action:", action.Name)
	}
}

func (self *Controller) ring() {
	log.Println("Ding dong!")
	if self.conf.Ring.Enabled {
		if err := self.Sound.Play(); err != nil {
			log.Println("Error playing ring:", err)
		}
	}

	self.meeting = NewMeeting(self.conf.Meeting)
	url := self.meeting.URL()
	if err := self.meeting.Start(self.Viewer); err != nil {
		log.Println("Error starting meeting:", err)
	} else {
		log.Println("Meeting started:", url)
	}

	if self.conf.Email.Enabled {
		msg := NewNotification(self.conf, url)
		if err := self.Mailer.Send(msg); err != nil {
			log.Println("Error sending notification:", err)
		} else {
			log.Println("Notification sent to", msg.To)
		}
	}

	self.screen(true)
	self.deadline = time.NewTimer(self.conf.Meeting.Active.Duration)
	self.emit("ring", url)
}

func (self *Controller) hangup() {
	if self.deadline != nil {
		self.deadline.Stop()
		self.deadline = nil
	}
	var url string
	if self.meeting != nil {
		url = self.meeting.URL()
		if err := self.meeting.End(self.Viewer); err != nil {
			log.Println("Error ending meeting:", err)
		}
		self.meeting = nil
	}
	self.screen(false)
	self.emit("hangup", url)
	log.Println("Meeting ended")
}

// shutdown hangs up if Ringing. Pending actions are discarded so a queued
// ring never starts.
func (self *Controller) shutdown() {
	if self.fsm.State.Name == stateRinging {
		self.process(evElapsed)
	}
	for {
		select {
		case action := <-self.automata.Actions:
			if action.Name == actionHangup {
				self.perform(action)
			}
		case <-self.automata.Changes:
		default:
			return
		}
	}
}

func (self *Controller) cleanup() {
	if err := self.Input.Close(); err != nil {
		log.Println("Error closing input:", err)
	}
	self.screen(true)
}

func (self *Controller) screen(on bool) {
	var err error
	if on {
		err = self.Screen.On()
	} else {
		err = self.Screen.Off()
	}
	if err != nil {
		log.Println("Error switching screen:", err)
	}
}

func (self *Controller) emit(command, url string) {
	fields := pubsub.Fields{
		"device":  self.conf.Doorbell.Device,
		"command": command,
	}
	if url != "" {
		fields["meeting"] = url
	}
	self.Publisher.Emit(pubsub.NewEvent("doorbell", fields))
}
