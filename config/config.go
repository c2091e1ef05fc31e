package config

import (
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/barnybug/doorbell/util"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"gopkg.in/yaml.v2"
)

// Prefix of environment variables overriding the configuration, eg:
// DOORBELL_EMAIL_PASSWORD.
const EnvPrefix = "doorbell"

var Drivers = map[string]bool{
	"rpio":   true,
	"periph": true,
}

type Duration struct {
	time.Duration
}

func (self *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return self.Decode(s)
}

func (self Duration) MarshalYAML() (interface{}, error) {
	return self.Duration.String(), nil
}

// Decode implements envconfig.Decoder.
func (self *Duration) Decode(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", value)
	}
	self.Duration = d
	return nil
}

type DoorbellConf struct {
	Pin      int
	Driver   string
	Debounce Duration
	Local_Ip string
	Device   string
}

type MeetingConf struct {
	Id     string
	Host   string
	Active Duration
	Viewer []string
}

type RingConf struct {
	Enabled bool
	File    string
	Player  []string
}

type ScreenConf struct {
	Power_On  []string
	Power_Off []string
}

type EmailConf struct {
	Enabled  bool
	From     string
	Password string
	To       string
	Server   string
}

type LockConf struct {
	Pin      int
	Driver   string
	Port     int
	Duration Duration
	Device   string
}

type EndpointsConf struct {
	Mqtt struct {
		Broker string
	}
}

// Configuration structure
type Config struct {
	Doorbell  DoorbellConf
	Meeting   MeetingConf
	Ring      RingConf
	Screen    ScreenConf
	Email     EmailConf
	Lock      LockConf
	Endpoints EndpointsConf
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Doorbell: DoorbellConf{
			Pin:      19,
			Driver:   "rpio",
			Debounce: Duration{10 * time.Second},
			Device:   "doorbell.front",
		},
		Meeting: MeetingConf{
			Host:   "https://meet.jit.si",
			Active: Duration{180 * time.Second},
			Viewer: []string{"chromium-browser", "--kiosk"},
		},
		Ring: RingConf{
			Enabled: true,
			File:    "~/wifi-doorbell/doorbell.wav",
			Player:  []string{"omxplayer", "-o", "local"},
		},
		Screen: ScreenConf{
			Power_On:  []string{"vcgencmd", "display_power", "1"},
			Power_Off: []string{"vcgencmd", "display_power", "0"},
		},
		Email: EmailConf{
			Enabled: true,
			Server:  "smtp.gmail.com:587",
		},
		Lock: LockConf{
			Pin:      16,
			Driver:   "rpio",
			Port:     80,
			Duration: Duration{20 * time.Second},
			Device:   "door.front",
		},
	}
}

// Load configuration from the file at p (if it exists), then apply
// environment overrides.
func Load(p string) (*Config, error) {
	self := Defaults()
	data, err := ioutil.ReadFile(p)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, errors.Wrap(err, "reading config")
	default:
		if err := yaml.Unmarshal(data, self); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", p)
		}
	}
	if err := self.ApplyEnv(); err != nil {
		return nil, err
	}
	return self, nil
}

// LoadEnvFile sets variables from a dotenv file (eg DOORBELL_EMAIL_PASSWORD=...)
// without overriding the existing environment. A missing file is ignored.
func LoadEnvFile(p string) error {
	err := godotenv.Load(p)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "loading %s", p)
}

// Open configuration from a reader.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenRaw(data)
}

// Open configuration from []byte, on top of the defaults.
func OpenRaw(data []byte) (*Config, error) {
	self := Defaults()
	err := yaml.Unmarshal(data, self)
	if err != nil {
		return nil, err
	}
	return self, nil
}

// ApplyEnv overrides fields from DOORBELL_* environment variables.
func (self *Config) ApplyEnv() error {
	err := envconfig.Process(EnvPrefix, self)
	return errors.Wrap(err, "reading environment")
}

// UnlockURL is the address of the lock server included in notifications.
func (self *Config) UnlockURL() string {
	host := self.Doorbell.Local_Ip
	if self.Lock.Port != 0 && self.Lock.Port != 80 && !strings.Contains(host, ":") {
		host = net.JoinHostPort(host, strconv.Itoa(self.Lock.Port))
	}
	return fmt.Sprintf("http://%s/unlock", host)
}

// SoundPath is the ring sound file with ~ expanded.
func (self *Config) SoundPath() string {
	return util.ExpandUser(self.Ring.File)
}

// Masked returns a copy safe for printing.
func (self *Config) Masked() *Config {
	c := *self
	if c.Email.Password != "" {
		c.Email.Password = "********"
	}
	return &c
}

// ValidateDoorbell checks the settings used by the doorbell controller.
func (self *Config) ValidateDoorbell() error {
	d := self.Doorbell
	if d.Pin <= 0 {
		return errors.Errorf("doorbell.pin invalid: %d", d.Pin)
	}
	if !Drivers[d.Driver] {
		return errors.Errorf("doorbell.driver unknown: %s", d.Driver)
	}
	if d.Debounce.Duration < 0 {
		return errors.New("doorbell.debounce must not be negative")
	}
	if self.Meeting.Active.Duration <= 0 {
		return errors.New("meeting.active must be positive")
	}
	if self.Meeting.Host == "" {
		return errors.New("meeting.host missing")
	}
	if len(self.Meeting.Viewer) == 0 {
		return errors.New("meeting.viewer missing")
	}
	if self.Ring.Enabled && (len(self.Ring.Player) == 0 || self.Ring.File == "") {
		return errors.New("ring.player and ring.file required when ring is enabled")
	}
	if len(self.Screen.Power_On) == 0 || len(self.Screen.Power_Off) == 0 {
		return errors.New("screen.power_on and screen.power_off required")
	}
	if self.Email.Enabled {
		e := self.Email
		if e.From == "" || e.To == "" || e.Server == "" {
			return errors.New("email.from, email.to and email.server required when email is enabled")
		}
		if _, _, err := net.SplitHostPort(e.Server); err != nil {
			return errors.Wrap(err, "email.server")
		}
		if d.Local_Ip == "" {
			return errors.New("doorbell.local_ip required when email is enabled")
		}
	}
	return nil
}

// ValidateLock checks the settings used by the lock server.
func (self *Config) ValidateLock() error {
	l := self.Lock
	if l.Pin <= 0 {
		return errors.Errorf("lock.pin invalid: %d", l.Pin)
	}
	if !Drivers[l.Driver] {
		return errors.Errorf("lock.driver unknown: %s", l.Driver)
	}
	if l.Port <= 0 || l.Port > 65535 {
		return errors.Errorf("lock.port invalid: %d", l.Port)
	}
	if l.Duration.Duration <= 0 {
		return errors.New("lock.duration must be positive")
	}
	return nil
}

// helpers

// Resolve a configuration file under .config/doorbell
func ConfigPath(p string) string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		config = path.Join(os.Getenv("HOME"), ".config")
	}
	return path.Join(config, "doorbell", p)
}
