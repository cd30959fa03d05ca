package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ N int }
type pong struct{ S string }

func TestBus_DeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.N) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	b.DispatchAll()
	assert.Empty(t, got, "events are not visible before SwapBuffers")
	assert.Equal(t, 2, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)
	assert.Zero(t, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got, "front buffer is cleared on the following swap")
}

func TestBus_TypesAreIsolated(t *testing.T) {
	b := NewBus()
	var pings, pongs int
	Subscribe(b, func(ping) { pings++ })
	Subscribe(b, func(pong) { pongs++ })
	Subscribe(b, func(pong) { pongs++ })

	Emit(b, pong{"x"})
	Emit(b, ping{1})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 1, pings)
	assert.Equal(t, 2, pongs)
}

func TestBus_EmitFromHandlerLandsNextTick(t *testing.T) {
	b := NewBus()
	var pongs []string
	Subscribe(b, func(p ping) { Emit(b, pong{"reply"}) })
	Subscribe(b, func(p pong) { pongs = append(pongs, p.S) })

	Emit(b, ping{1})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Empty(t, pongs)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"reply"}, pongs)
}
