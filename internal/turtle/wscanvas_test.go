package turtle

import (
	"sync"
	"testing"
)

func TestWSCanvasQueuesEventsUntilDone(t *testing.T) {
	c := NewWSCanvas("localhost:0")

	var clicks []float64
	c.OnClick(func(x, y float64) { clicks = append(clicks, x, y) })
	var keys int
	c.OnKey("space", func() { keys++ })

	c.events <- clientEvent{Event: "click", X: 1, Y: 2}
	c.events <- clientEvent{Event: "key", Key: "space"}

	// queued input must not fire handlers while the program is drawing
	if err := c.Forward(10); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(clicks) != 0 || keys != 0 {
		t.Fatal("handlers ran before the program asked for events")
	}

	if err := c.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	if len(clicks) != 2 || clicks[0] != 1 || clicks[1] != 2 {
		t.Errorf("click handler saw %v", clicks)
	}
	if keys != 1 {
		t.Errorf("key handler ran %d times, want 1", keys)
	}
}

func TestWSCanvasExitOnClickDrainsUntilClick(t *testing.T) {
	c := NewWSCanvas("localhost:0")

	var drags, clicks int
	c.OnDrag(func(x, y float64) { drags++ })
	c.OnClick(func(x, y float64) { clicks++ })

	c.events <- clientEvent{Event: "drag", X: 1, Y: 1}
	c.events <- clientEvent{Event: "drag", X: 2, Y: 2}
	c.events <- clientEvent{Event: "click", X: 3, Y: 3}

	if err := c.ExitOnClick(); err != nil {
		t.Fatalf("exitonclick: %v", err)
	}
	if drags != 2 || clicks != 1 {
		t.Errorf("drags=%d clicks=%d, want 2 and 1", drags, clicks)
	}

	// closed canvas: a second call returns without blocking
	if err := c.ExitOnClick(); err != nil {
		t.Fatalf("exitonclick after close: %v", err)
	}
}

func TestWSCanvasConcurrentDrawAndReplay(t *testing.T) {
	c := NewWSCanvas("localhost:0")
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < 100; n++ {
			c.Forward(1)
		}
	}()
	go func() {
		// the replay snapshot a connecting client takes
		defer wg.Done()
		for n := 0; n < 100; n++ {
			c.mu.Lock()
			_ = append([]Op(nil), c.Recorder.Ops()...)
			c.mu.Unlock()
		}
	}()
	wg.Wait()

	if len(c.Ops()) != 100 {
		t.Errorf("recorded %d ops, want 100", len(c.Ops()))
	}
}
