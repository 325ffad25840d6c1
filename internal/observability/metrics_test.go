package observability

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRoomMetricsCounts(t *testing.T) {
	m := NewChatRoomMetrics()

	m.IncrementEvent("7")
	m.IncrementEvent("7")
	m.IncrementEvent("9")
	assert.Equal(t, 2, m.GetEventCount("7"))
	assert.Equal(t, 1, m.GetEventCount("9"))

	m.DecrementEvent("7")
	assert.Equal(t, 1, m.GetEventCount("7"))

	// Never drops below zero
	m.DecrementEvent("9")
	m.DecrementEvent("9")
	assert.Equal(t, 0, m.GetEventCount("9"))
}

func TestChatRoomMetricsConcurrentUpdates(t *testing.T) {
	m := NewChatRoomMetrics()

	// Each websocket connection updates counts from its own goroutine
	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			eventID := strconv.Itoa(w % 3)
			for i := 0; i < rounds; i++ {
				m.IncrementEvent(eventID)
				m.GetEventCount(eventID)
				m.DecrementEvent(eventID)
			}
		}(w)
	}
	wg.Wait()

	for _, eventID := range []string{"0", "1", "2"} {
		assert.Equal(t, 0, m.GetEventCount(eventID))
	}
}
