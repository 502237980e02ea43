package turtle

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSCanvas is a Surface that mirrors every drawing operation to browser
// clients over a websocket. State tracking is delegated to an embedded
// Recorder; c.mu guards it, since client goroutines read the op log for
// replay while the interpreter goroutine appends to it.
//
// Incoming client events are queued, not handled inline: the websocket read
// goroutine must never call back into the interpreter, so Done and
// ExitOnClick drain the queue on the caller's goroutine.
type WSCanvas struct {
	*Recorder

	addr     string
	upgrader websocket.Upgrader

	mu      sync.Mutex // guards Recorder and clients
	clients map[string]*websocket.Conn

	events chan clientEvent
	closed chan struct{}
	once   sync.Once
	server *http.Server
}

// clientEvent is what the browser sends back: pointer and key input.
type clientEvent struct {
	Event string  `json:"event"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Key   string  `json:"key"`
}

func NewWSCanvas(addr string) *WSCanvas {
	return &WSCanvas{
		Recorder: NewRecorder(),
		addr:     addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*websocket.Conn),
		events:  make(chan clientEvent, 64),
		closed:  make(chan struct{}),
	}
}

// Start begins serving the canvas endpoint. It returns immediately; clients
// that connect later receive a replay of every op recorded so far.
func (c *WSCanvas) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/canvas", c.handleClient)
	c.server = &http.Server{Addr: c.addr, Handler: mux}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("canvas server: %v", err)
		}
	}()
	return nil
}

func (c *WSCanvas) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.New().String()

	c.mu.Lock()
	c.clients[id] = conn
	replay := append([]Op(nil), c.Recorder.Ops()...)
	c.mu.Unlock()

	for _, op := range replay {
		if err := conn.WriteJSON(op); err != nil {
			break
		}
	}

	go c.readEvents(id, conn)
}

// readEvents queues client input. Handlers run later, on the interpreter
// goroutine, when the program reaches done() or exitonclick().
func (c *WSCanvas) readEvents(id string, conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		delete(c.clients, id)
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		var ev clientEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		select {
		case c.events <- ev:
		case <-c.closed:
			return
		}
	}
}

// dispatch delivers one queued event to the Recorder's handlers. Must run on
// the interpreter goroutine. Reports whether the event was a click.
func (c *WSCanvas) dispatch(ev clientEvent) bool {
	switch ev.Event {
	case "click":
		c.Recorder.Click(ev.X, ev.Y)
		return true
	case "release":
		c.Recorder.Release(ev.X, ev.Y)
	case "drag":
		c.Recorder.Drag(ev.X, ev.Y)
	case "key":
		c.Recorder.Key(ev.Key)
	}
	return false
}

func (c *WSCanvas) broadcast(ops []Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, conn := range c.clients {
		for _, op := range ops {
			if err := conn.WriteJSON(op); err != nil {
				conn.Close()
				delete(c.clients, id)
				break
			}
		}
	}
}

// send records through the embedded Recorder under the lock, then mirrors
// the new ops out.
func (c *WSCanvas) send(call func() error) error {
	c.mu.Lock()
	before := len(c.Recorder.Ops())
	err := call()
	fresh := append([]Op(nil), c.Recorder.Ops()[before:]...)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.broadcast(fresh)
	return nil
}

func (c *WSCanvas) Forward(dist float64) error  { return c.send(func() error { return c.Recorder.Forward(dist) }) }
func (c *WSCanvas) Backward(dist float64) error { return c.send(func() error { return c.Recorder.Backward(dist) }) }
func (c *WSCanvas) Left(deg float64) error      { return c.send(func() error { return c.Recorder.Left(deg) }) }
func (c *WSCanvas) Right(deg float64) error     { return c.send(func() error { return c.Recorder.Right(deg) }) }
func (c *WSCanvas) Goto(x, y float64) error     { return c.send(func() error { return c.Recorder.Goto(x, y) }) }
func (c *WSCanvas) SetX(x float64) error        { return c.send(func() error { return c.Recorder.SetX(x) }) }
func (c *WSCanvas) SetY(y float64) error        { return c.send(func() error { return c.Recorder.SetY(y) }) }
func (c *WSCanvas) SetHeading(d float64) error  { return c.send(func() error { return c.Recorder.SetHeading(d) }) }
func (c *WSCanvas) PenUp() error                { return c.send(c.Recorder.PenUp) }
func (c *WSCanvas) PenDown() error              { return c.send(c.Recorder.PenDown) }
func (c *WSCanvas) Color(name string) error     { return c.send(func() error { return c.Recorder.Color(name) }) }
func (c *WSCanvas) BgColor(name string) error   { return c.send(func() error { return c.Recorder.BgColor(name) }) }
func (c *WSCanvas) Width(w float64) error       { return c.send(func() error { return c.Recorder.Width(w) }) }
func (c *WSCanvas) Speed(n int) error           { return c.send(func() error { return c.Recorder.Speed(n) }) }
func (c *WSCanvas) Clear() error                { return c.send(c.Recorder.Clear) }
func (c *WSCanvas) Reset() error                { return c.send(c.Recorder.Reset) }

func (c *WSCanvas) Circle(radius, extent float64) error {
	return c.send(func() error { return c.Recorder.Circle(radius, extent) })
}

func (c *WSCanvas) Dot(size float64, color string) error {
	return c.send(func() error { return c.Recorder.Dot(size, color) })
}

// Done flushes output and delivers any input events queued so far.
func (c *WSCanvas) Done() error {
	if err := c.send(c.Recorder.Done); err != nil {
		return err
	}
	for {
		select {
		case ev := <-c.events:
			c.dispatch(ev)
		default:
			return nil
		}
	}
}

// ExitOnClick delivers queued events until one of them is a click, then
// shuts the server down.
func (c *WSCanvas) ExitOnClick() error {
	if err := c.send(c.Recorder.ExitOnClick); err != nil {
		return err
	}
	for {
		select {
		case ev := <-c.events:
			if c.dispatch(ev) {
				return c.Close()
			}
		case <-c.closed:
			return nil
		}
	}
}

// Close shuts the canvas server down and disconnects all clients.
func (c *WSCanvas) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		c.mu.Lock()
		for id, conn := range c.clients {
			conn.Close()
			delete(c.clients, id)
		}
		c.mu.Unlock()
		if c.server != nil {
			err = c.server.Close()
		}
	})
	return err
}

// URL returns the websocket endpoint clients should connect to.
func (c *WSCanvas) URL() string {
	return fmt.Sprintf("ws://%s/canvas", c.addr)
}
