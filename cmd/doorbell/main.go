package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/gpio"
	"github.com/barnybug/doorbell/pubsub"
	"github.com/barnybug/doorbell/services"
	"github.com/barnybug/doorbell/services/doorbell"
	"github.com/barnybug/doorbell/services/lock"
	"gopkg.in/yaml.v2"
)

var (
	configFile = flag.String("config", config.ConfigPath("doorbell.yaml"), "configuration file")
	envFile    = flag.String("env", config.ConfigPath(".env"), "environment file, eg for DOORBELL_EMAIL_PASSWORD")
)

func usage() {
	fmt.Println("Usage: doorbell [-config FILE] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("   run     [service...]    Run services (doorbell, lock)")
	fmt.Println("   ring                    Ring once without the button")
	fmt.Println("   unlock  [url]           Unlock the door")
	fmt.Println("   config                  Show the effective configuration")
	fmt.Println()
	fmt.Println("Configuration is read from", config.ConfigPath("doorbell.yaml"))
	fmt.Println("and overridden by DOORBELL_* environment variables, which may")
	fmt.Println("also be set in", config.ConfigPath(".env"))
}

func fmtFatalf(format string, v ...interface{}) {
	fmt.Printf(format, v...)
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	ps := flag.Args()[1:]

	services.SetupLogging()
	if err := config.LoadEnvFile(*envFile); err != nil {
		fmtFatalf("error: %s\n", err)
	}
	conf, err := config.Load(*configFile)
	if err != nil {
		fmtFatalf("error: %s\n", err)
	}

	command := flag.Args()[0]
	switch command {
	default:
		usage()
		os.Exit(1)
	case "run":
		run(conf, ps)
	case "ring":
		ring(conf)
	case "unlock":
		url := conf.UnlockURL()
		if len(ps) > 0 {
			url = ps[0]
		}
		unlock(url)
	case "config":
		showConfig(conf)
	}
}

func registerServices(conf *config.Config, broker *services.Broker) {
	services.Register(doorbell.New(conf, broker.Publisher, broker.Subscriber))
	services.Register(lock.New(conf, broker.Publisher, broker.Subscriber))
}

// Start builtin services
func run(conf *config.Config, ss []string) {
	if len(ss) == 0 {
		ss = []string{"doorbell"}
	}
	name := ss[0]
	broker, err := services.SetupBroker(conf.Endpoints.Mqtt.Broker, name)
	if err != nil {
		log.Fatalln("Connecting to broker:", err)
	}
	defer broker.Close()
	registerServices(conf, broker)

	ctx, stop := services.SignalContext()
	defer stop()
	if err := services.Launch(ctx, ss, broker.Publisher); err != nil {
		log.Println(err)
		broker.Close()
		os.Exit(1)
	}
}

// ring runs one cycle with the configured sound, viewer, screen and email,
// pressing a simulated button.
func ring(conf *config.Config) {
	if err := conf.ValidateDoorbell(); err != nil {
		fmtFatalf("error: %s\n", err)
	}
	input := gpio.NewMockInput()
	controller, err := doorbell.NewController(conf, input, pubsub.Discard)
	if err != nil {
		fmtFatalf("error: %s\n", err)
	}

	ctx, stop := services.SignalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- controller.Run(ctx) }()

	for !input.Watching() {
		time.Sleep(10 * time.Millisecond)
	}
	input.Press()
	rang := false
	for {
		select {
		case err := <-done:
			if err != nil {
				fmtFatalf("error: %s\n", err)
			}
			return
		case <-time.After(100 * time.Millisecond):
		}
		switch controller.State() {
		case "Ringing":
			rang = true
		case "Idle":
			if rang {
				cancel()
			}
		}
	}
}

func showConfig(conf *config.Config) {
	data, err := yaml.Marshal(conf.Masked())
	if err != nil {
		fmtFatalf("error: %s\n", err)
	}
	os.Stdout.Write(data)
}
