// Service to unlock the door over http, driving the strike relay for a fixed
// duration.
package lock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/gpio"
	"github.com/barnybug/doorbell/pubsub"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const UnlockedMessage = "Door successfully unlocked"

type Service struct {
	conf *config.Config
	pub  pubsub.Publisher
	sub  pubsub.Subscriber
	lock *Lock
	ctx  context.Context

	// OpenOutput opens the relay pin. Replaced in tests.
	OpenOutput func(driver string, pin int) (gpio.Output, error)
}

// New service. sub may be nil when no broker is configured.
func New(conf *config.Config, pub pubsub.Publisher, sub pubsub.Subscriber) *Service {
	return &Service{conf: conf, pub: pub, sub: sub, OpenOutput: gpio.OpenOutput}
}

func (self *Service) ID() string {
	return "lock"
}

type Response struct {
	Message string `json:"message"`
}

func errorResponse(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), 500)
}

func jsonResponse(w http.ResponseWriter, obj interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	err := enc.Encode(obj)
	if err != nil {
		errorResponse(w, err)
	}
}

func apiIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "text/html")
	fmt.Fprintf(w, "<html>Doorbell lock is listening</html>")
}

// apiUnlock holds the request open for the whole unlock. Relay failures are
// logged only: the caller always gets the acknowledgement.
func (self *Service) apiUnlock(w http.ResponseWriter, r *http.Request) {
	// the service context, not the request's, so a dropped connection
	// doesn't relock the door early
	if err := self.lock.Unlock(self.ctx); err != nil {
		log.Println("Error unlocking:", err)
	}
	jsonResponse(w, Response{Message: UnlockedMessage})
}

func (self *Service) router() *mux.Router {
	router := mux.NewRouter()
	router.Path("/").Methods("GET").HandlerFunc(apiIndex)
	router.Path("/unlock").Methods("GET").HandlerFunc(self.apiUnlock)
	return router
}

type loggingHandler struct {
	Handler http.Handler
}

func (service loggingHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Printf("%s %s %s\n", req.RemoteAddr, req.Method, req.RequestURI)
	service.Handler.ServeHTTP(w, req)
}

// commands unlocks on request over the broker.
func (self *Service) commands(ctx context.Context) {
	topic := pubsub.CommandTopic(self.conf.Lock.Device)
	ch := self.sub.Subscribe(topic)
	defer self.sub.Close(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Command() != "unlock" {
				log.Printf("Unknown command %q on %s", ev.Command(), topic)
				continue
			}
			go func() {
				if err := self.lock.Unlock(ctx); err != nil {
					log.Println("Error unlocking:", err)
				}
			}()
		}
	}
}

func (self *Service) Run(ctx context.Context) error {
	if err := self.conf.ValidateLock(); err != nil {
		return err
	}
	output, err := self.OpenOutput(self.conf.Lock.Driver, self.conf.Lock.Pin)
	if err != nil {
		return errors.Wrapf(err, "opening relay pin %d (try running as root)", self.conf.Lock.Pin)
	}
	self.ctx = ctx
	self.lock = NewLock(output, self.conf.Lock.Duration.Duration, self.conf.Lock.Device, self.pub)
	defer self.lock.Close()

	if self.sub != nil {
		go self.commands(ctx)
	}

	addr := fmt.Sprintf(":%d", self.conf.Lock.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           loggingHandler{Handler: self.router()},
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Println("Listening on " + addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}
	log.Println("Safely shutting down...")
	// in-flight unlocks see ctx done and relock
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		log.Println("Error stopping http server:", err)
	}
	return nil
}
