// Package turtle provides the drawing surfaces El's graphics builtins draw
// on. Recorder is the headless surface used by scripts without a display and
// by tests; WSCanvas streams the same operations to a browser canvas.
package turtle

import "math"

// Surface is a turtle-graphics drawing target. Angles are degrees, the
// heading starts at 0 (east) and grows counterclockwise, and the pen starts
// down at the origin.
type Surface interface {
	Forward(dist float64) error
	Backward(dist float64) error
	Left(deg float64) error
	Right(deg float64) error
	Goto(x, y float64) error
	SetX(x float64) error
	SetY(y float64) error
	SetHeading(deg float64) error
	PenUp() error
	PenDown() error
	Color(name string) error
	BgColor(name string) error
	Width(w float64) error
	Speed(n int) error
	Circle(radius, extent float64) error
	Dot(size float64, color string) error
	Clear() error
	Reset() error

	XCor() float64
	YCor() float64
	Heading() float64

	// Done flushes pending output; ExitOnClick additionally blocks until
	// the user clicks the surface.
	Done() error
	ExitOnClick() error

	OnClick(fn func(x, y float64))
	OnRelease(fn func(x, y float64))
	OnDrag(fn func(x, y float64))
	OnKey(key string, fn func())
}

// Op is one recorded drawing operation.
type Op struct {
	Name string    `json:"op"`
	Args []float64 `json:"args,omitempty"`
	Text string    `json:"text,omitempty"`
}

// Recorder is an in-memory Surface. It tracks full turtle state so position
// queries work, and keeps the op list for inspection.
type Recorder struct {
	ops     []Op
	x, y    float64
	heading float64
	penDown bool

	clickFns   []func(x, y float64)
	releaseFns []func(x, y float64)
	dragFns    []func(x, y float64)
	keyFns     map[string][]func()
}

func NewRecorder() *Recorder {
	return &Recorder{penDown: true, keyFns: map[string][]func(){}}
}

// Ops returns the operations recorded so far.
func (r *Recorder) Ops() []Op {
	return r.ops
}

func (r *Recorder) record(name string, args ...float64) {
	r.ops = append(r.ops, Op{Name: name, Args: args})
}

func (r *Recorder) Forward(dist float64) error {
	rad := r.heading * math.Pi / 180
	r.x += dist * math.Cos(rad)
	r.y += dist * math.Sin(rad)
	r.record("forward", dist)
	return nil
}

func (r *Recorder) Backward(dist float64) error {
	rad := r.heading * math.Pi / 180
	r.x -= dist * math.Cos(rad)
	r.y -= dist * math.Sin(rad)
	r.record("backward", dist)
	return nil
}

func (r *Recorder) Left(deg float64) error {
	r.heading = normalize(r.heading + deg)
	r.record("left", deg)
	return nil
}

func (r *Recorder) Right(deg float64) error {
	r.heading = normalize(r.heading - deg)
	r.record("right", deg)
	return nil
}

func (r *Recorder) Goto(x, y float64) error {
	r.x, r.y = x, y
	r.record("goto", x, y)
	return nil
}

func (r *Recorder) SetX(x float64) error {
	r.x = x
	r.record("setx", x)
	return nil
}

func (r *Recorder) SetY(y float64) error {
	r.y = y
	r.record("sety", y)
	return nil
}

func (r *Recorder) SetHeading(deg float64) error {
	r.heading = normalize(deg)
	r.record("setheading", deg)
	return nil
}

func (r *Recorder) PenUp() error {
	r.penDown = false
	r.record("penup")
	return nil
}

func (r *Recorder) PenDown() error {
	r.penDown = true
	r.record("pendown")
	return nil
}

func (r *Recorder) Color(name string) error {
	r.ops = append(r.ops, Op{Name: "color", Text: name})
	return nil
}

func (r *Recorder) BgColor(name string) error {
	r.ops = append(r.ops, Op{Name: "bgcolor", Text: name})
	return nil
}

func (r *Recorder) Width(w float64) error {
	r.record("width", w)
	return nil
}

func (r *Recorder) Speed(n int) error {
	r.record("speed", float64(n))
	return nil
}

// Circle draws an arc of the given extent (360 for a full circle). The
// turtle's position moves along the arc the way a pen would.
func (r *Recorder) Circle(radius, extent float64) error {
	rad := r.heading * math.Pi / 180
	cx := r.x - radius*math.Sin(rad)
	cy := r.y + radius*math.Cos(rad)
	sweep := extent * math.Pi / 180
	angle := math.Atan2(r.y-cy, r.x-cx) + sweep
	r.x = cx + radius*math.Cos(angle)
	r.y = cy + radius*math.Sin(angle)
	r.heading = normalize(r.heading + extent)
	r.record("circle", radius, extent)
	return nil
}

func (r *Recorder) Dot(size float64, color string) error {
	r.ops = append(r.ops, Op{Name: "dot", Args: []float64{size}, Text: color})
	return nil
}

func (r *Recorder) Clear() error {
	r.record("clear")
	return nil
}

func (r *Recorder) Reset() error {
	r.x, r.y, r.heading = 0, 0, 0
	r.penDown = true
	r.record("reset")
	return nil
}

func (r *Recorder) XCor() float64    { return r.x }
func (r *Recorder) YCor() float64    { return r.y }
func (r *Recorder) Heading() float64 { return r.heading }
func (r *Recorder) PenIsDown() bool  { return r.penDown }

func (r *Recorder) Done() error {
	r.record("done")
	return nil
}

// ExitOnClick records the op and returns immediately. A headless surface has
// no user to wait on.
func (r *Recorder) ExitOnClick() error {
	r.record("exitonclick")
	return nil
}

func (r *Recorder) OnClick(fn func(x, y float64))   { r.clickFns = append(r.clickFns, fn) }
func (r *Recorder) OnRelease(fn func(x, y float64)) { r.releaseFns = append(r.releaseFns, fn) }
func (r *Recorder) OnDrag(fn func(x, y float64))    { r.dragFns = append(r.dragFns, fn) }

func (r *Recorder) OnKey(key string, fn func()) {
	r.keyFns[key] = append(r.keyFns[key], fn)
}

// Click delivers a synthetic click to registered handlers. Test hook.
func (r *Recorder) Click(x, y float64) {
	for _, fn := range r.clickFns {
		fn(x, y)
	}
}

// Release delivers a synthetic button release. Test hook.
func (r *Recorder) Release(x, y float64) {
	for _, fn := range r.releaseFns {
		fn(x, y)
	}
}

// Drag delivers a synthetic drag event. Test hook.
func (r *Recorder) Drag(x, y float64) {
	for _, fn := range r.dragFns {
		fn(x, y)
	}
}

// Key delivers a synthetic key press. Test hook.
func (r *Recorder) Key(key string) {
	for _, fn := range r.keyFns[key] {
		fn()
	}
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
