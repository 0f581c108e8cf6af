package middleware

import (
	"sync"
	"time"
)

// CircuitBreaker tracks consecutive limiter errors:
// - after failureThreshold errors the circuit opens and the in-process limiter takes over;
// - once cooldown has passed the primary is probed again;
// - successThreshold consecutive probe successes close the circuit.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            circuitState
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	openedAt         time.Time
	now              func() time.Time
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
)

func newCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		state:            circuitClosed,
		failureThreshold: 5,
		successThreshold: 3,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
}

func (c *CircuitBreaker) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == circuitOpen
}

// UsePrimary reports whether the next check should go to the primary limiter.
func (c *CircuitBreaker) UsePrimary() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == circuitClosed || c.now().Sub(c.openedAt) >= c.cooldown
}

// RecordFailure returns true when the circuit is open after the failure.
func (c *CircuitBreaker) RecordFailure() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	c.successCount = 0
	if c.state == circuitOpen {
		c.openedAt = c.now()
		return true
	}
	if c.failureCount >= c.failureThreshold {
		c.state = circuitOpen
		c.openedAt = c.now()
		return true
	}
	return false
}

// RecordSuccess returns true when the circuit is closed after the success.
func (c *CircuitBreaker) RecordSuccess() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == circuitOpen {
		c.successCount++
		if c.successCount >= c.successThreshold {
			c.state = circuitClosed
			c.failureCount = 0
			c.successCount = 0
			return true
		}
		return false
	}
	c.failureCount = 0
	return true
}
