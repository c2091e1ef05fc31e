package doorbell

import (
	"log"
	"sync"

	"github.com/Knetic/govaluate"
)

const (
	stateIdle    = "Idle"
	stateRinging = "Ringing"

	actionRing   = "ring()"
	actionHangup = "hangup()"
)

// The doorbell cycle. There is deliberately no press transition out of
// Ringing: presses during a meeting are dropped.
const automatonYaml = `
doorbell:
  start: Idle
  states:
    Idle:
      entering: [hangup()]
    Ringing:
      entering: [ring()]
  transitions:
    Idle->Ringing:
    - when: event=='press'
    Ringing->Idle:
    - when: event=='elapsed'
`

// trigger is an event fed to the automaton.
type trigger string

const (
	evPress   trigger = "press"
	evElapsed trigger = "elapsed"
)

var (
	expressions     = map[string]*govaluate.EvaluableExpression{}
	expressionsLock sync.Mutex
)

func compile(when string) (*govaluate.EvaluableExpression, error) {
	expressionsLock.Lock()
	defer expressionsLock.Unlock()
	if expr, ok := expressions[when]; ok {
		return expr, nil
	}
	expr, err := govaluate.NewEvaluableExpression(when)
	if err != nil {
		return nil, err
	}
	expressions[when] = expr
	return expr, nil
}

func (t trigger) Match(when string) bool {
	expr, err := compile(when)
	if err != nil {
		log.Printf("Bad transition %q: %s", when, err)
		return false
	}
	result, err := expr.Evaluate(map[string]interface{}{"event": string(t)})
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

func (t trigger) String() string {
	return string(t)
}
