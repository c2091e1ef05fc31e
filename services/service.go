package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/barnybug/doorbell/pubsub"
	"github.com/barnybug/doorbell/pubsub/mqtt"
	"github.com/pkg/errors"
)

// Service interface
type Service interface {
	ID() string
	// Run until ctx is cancelled. Returning an error is fatal.
	Run(ctx context.Context) error
}

var serviceMap map[string]Service = map[string]Service{}

func Register(service Service) {
	if _, exists := serviceMap[service.ID()]; exists {
		log.Fatalf("Duplicate service registered: %s", service.ID())
	}
	serviceMap[service.ID()] = service
}

// Registered service ids, sorted.
func Registered() []string {
	var ids []string
	for id := range serviceMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func SetupLogging() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
}

// SignalContext is cancelled on an operator interrupt or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Broker holds the publisher and subscriber for a process. Without a
// configured broker url events are discarded and Subscriber is nil.
type Broker struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	broker     *mqtt.Broker
}

func SetupBroker(url, name string) (*Broker, error) {
	if url == "" {
		log.Println("No mqtt broker configured, events disabled")
		return &Broker{Publisher: pubsub.Discard}, nil
	}
	broker, err := mqtt.NewBroker(url, name)
	if err != nil {
		return nil, err
	}
	log.Println("Connected to", broker.ID())
	return &Broker{
		Publisher:  broker.Publisher(),
		Subscriber: broker.Subscriber(),
		broker:     broker,
	}, nil
}

func (b *Broker) Close() {
	if b.broker != nil {
		b.broker.Close()
	}
}

// Launch runs the named services until ctx is cancelled or one fails. All
// services are given the chance to clean up before Launch returns.
func Launch(ctx context.Context, ss []string, pub pubsub.Publisher) error {
	enabled := []Service{}
	for _, name := range ss {
		if service, ok := serviceMap[name]; ok {
			enabled = append(enabled, service)
		} else {
			return fmt.Errorf("Service %s does not exist", name)
		}
	}
	if len(enabled) == 0 {
		return errors.New("no services given")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := make(chan error, len(enabled))
	for _, service := range enabled {
		log.Printf("Starting %s\n", service.ID())
		go Heartbeat(ctx, pub, service.ID(), time.Minute)
		go func(service Service) {
			err := service.Run(ctx)
			if err != nil {
				err = errors.Wrapf(err, "running service %s", service.ID())
			}
			errs <- err
		}(service)
	}

	var first error
	for range enabled {
		if err := <-errs; err != nil && first == nil {
			first = err
			// stop the others
			cancel()
		}
	}
	return first
}

func Heartbeat(ctx context.Context, pub pubsub.Publisher, id string, interval time.Duration) {
	started := time.Now()
	device := fmt.Sprintf("heartbeat.%s", id)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		uptime := int(time.Since(started).Seconds())
		fields := pubsub.Fields{
			"device":  device,
			"pid":     os.Getpid(),
			"started": started.Format(time.RFC3339),
			"uptime":  uptime,
		}
		ev := pubsub.NewEvent("heartbeat", fields)
		ev.SetRetained(true)
		pub.Emit(ev)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
