package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Concurrent(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
			c.Add(2)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(150), c.Load())
}

func TestLatency_Average(t *testing.T) {
	var l Latency
	assert.Equal(t, time.Duration(0), l.Average())

	l.Observe(10 * time.Millisecond)
	l.Observe(30 * time.Millisecond)
	l.Observe(-time.Second)

	assert.Equal(t, time.Duration(40*time.Millisecond/3), l.Average())
}

func TestCheckoutStats_Snapshot(t *testing.T) {
	s := NewCheckoutStats()

	s.RecordSuccess(3, StartTimer())
	s.RecordConflict()
	s.RecordFailure()
	s.RecordRetry()
	s.RecordReplay()

	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.Succeeded)
	assert.Equal(t, uint64(3), snap.Orders)
	assert.Equal(t, uint64(1), snap.Conflicts)
	assert.Equal(t, uint64(1), snap.Failed)
	assert.Equal(t, uint64(1), snap.Retried)
	assert.Equal(t, uint64(1), snap.Replayed)
}

func TestCheckoutStats_Nil(t *testing.T) {
	var s *CheckoutStats

	assert.NotPanics(t, func() {
		s.RecordSuccess(1, StartTimer())
		s.RecordConflict()
		s.RecordFailure()
	})
	assert.Equal(t, Snapshot{}, s.Snapshot())
}
