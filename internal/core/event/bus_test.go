package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsDeliveredNextTick(t *testing.T) {
	b := NewBus()
	var got []Result
	Subscribe(b, func(ev MatchEnded) { got = append(got, ev.Result) })

	Emit(b, MatchEnded{Result: ResultWin})
	assert.Equal(t, 1, b.Pending())

	b.DispatchAll()
	assert.Empty(t, got, "emitted events are not visible in the same tick")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []Result{ResultWin}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "events are delivered once")
}
