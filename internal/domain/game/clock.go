package game

import (
	"sync"
	"time"
)

// Clock supplies the current time and periodic callbacks.
type Clock interface {
	Now() time.Time
	// Every calls fn every interval until stop is called. stop must not
	// block on a running fn.
	Every(interval time.Duration, fn func()) (stop func())
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
