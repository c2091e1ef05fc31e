package doorbell

import (
	"log"
	"os/exec"
	"strings"

	"github.com/barnybug/doorbell/processes"
	"github.com/pkg/errors"
)

// Player plays the ring sound.
type Player interface {
	Play() error
}

// Screen switches the attached display.
type Screen interface {
	On() error
	Off() error
}

// CommandPlayer starts the player command on the sound file and does not
// wait for it to finish.
type CommandPlayer struct {
	Command []string
	File    string
}

func (p *CommandPlayer) Play() error {
	log.Println("Playing", p.File)
	return processes.Command(p.Command, p.File).Start()
}

// CommandScreen runs a command to power the display, eg vcgencmd.
type CommandScreen struct {
	PowerOn  []string
	PowerOff []string
}

func (s *CommandScreen) On() error {
	return run(s.PowerOn)
}

func (s *CommandScreen) Off() error {
	return run(s.PowerOff)
}

func run(argv []string) error {
	if len(argv) == 0 {
		return errors.New("no command given")
	}
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	return errors.Wrapf(err, "%s: %s", strings.Join(argv, " "), strings.TrimSpace(string(out)))
}
