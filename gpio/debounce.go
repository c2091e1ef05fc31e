package gpio

import (
	"sync"
	"time"
)

// Debounce returns a function calling fn, unless the previous accepted call
// was less than interval ago, in which case the call is dropped.
func Debounce(interval time.Duration, fn func()) func() {
	return debounce(interval, time.Now, fn)
}

func debounce(interval time.Duration, now func() time.Time, fn func()) func() {
	var (
		lock sync.Mutex
		last time.Time
	)
	return func() {
		lock.Lock()
		t := now()
		if !last.IsZero() && t.Sub(last) < interval {
			lock.Unlock()
			return
		}
		last = t
		lock.Unlock()
		fn()
	}
}
