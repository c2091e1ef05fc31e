// Package processes manages the child processes spawned by the doorbell: the
// ring sound player and the meeting viewer.
package processes

import (
	"log"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/barnybug/doorbell/util"
	"github.com/pkg/errors"
)

var ErrAlreadyStarted = errors.New("process already started")

// Process is an owned child process. A Process can be started again once the
// previous run has exited.
type Process struct {
	Name string
	Args []string

	lock sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func New(name string, args ...string) *Process {
	return &Process{Name: name, Args: args}
}

// Command builds a Process from argv, appending extra arguments.
func Command(argv []string, extra ...string) *Process {
	if len(argv) == 0 {
		return New("")
	}
	args := make([]string, 0, len(argv)-1+len(extra))
	args = append(args, argv[1:]...)
	args = append(args, extra...)
	return New(argv[0], args...)
}

func (self *Process) Start() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.running() {
		return ErrAlreadyStarted
	}
	if self.Name == "" {
		return errors.New("no command given")
	}

	cmd := exec.Command(util.ExpandUser(self.Name), self.Args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %s", self.Name)
	}
	log.Printf("Started %s (pid: %d)\n", self.Name, cmd.Process.Pid)

	done := make(chan struct{})
	self.cmd = cmd
	self.done = done
	self.err = nil
	go func() {
		// collect zombies
		err := cmd.Wait()
		self.lock.Lock()
		self.err = err
		self.lock.Unlock()
		close(done)
	}()
	return nil
}

func (self *Process) running() bool {
	if self.done == nil {
		return false
	}
	select {
	case <-self.done:
		return false
	default:
		return true
	}
}

func (self *Process) Running() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.running()
}

// Pid of the last started process, or 0.
func (self *Process) Pid() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.cmd == nil {
		return 0
	}
	return self.cmd.Process.Pid
}

// Terminate sends SIGTERM. It is a no-op if the process was never started or
// has already exited.
func (self *Process) Terminate() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if !self.running() {
		return nil
	}
	err := self.cmd.Process.Signal(syscall.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "terminating %s", self.Name)
	}
	log.Printf("Terminated %s (pid: %d)\n", self.Name, self.cmd.Process.Pid)
	return nil
}

// Wait for the process to exit, returning its exit error.
func (self *Process) Wait() error {
	self.lock.Lock()
	done := self.done
	self.lock.Unlock()
	if done == nil {
		return nil
	}
	<-done
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.err
}
