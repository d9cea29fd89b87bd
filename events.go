package geocam

import "github.com/google/uuid"

// Event names emitted by the camera. Per transition each axis fires at most
// one start/end pair, and only if the axis value actually changes; the move
// group wraps every transition.
const (
	EventMoveStart = "movestart"
	EventMove      = "move"
	EventMoveEnd   = "moveend"

	EventZoomStart = "zoomstart"
	EventZoom      = "zoom"
	EventZoomEnd   = "zoomend"

	EventRotateStart = "rotatestart"
	EventRotate      = "rotate"
	EventRotateEnd   = "rotateend"

	EventPitchStart = "pitchstart"
	EventPitch      = "pitch"
	EventPitchEnd   = "pitchend"
)

// EventData is the caller-supplied payload forwarded verbatim on every event
// of a transition.
type EventData map[string]any

// Event is what the camera hands to its Emitter. SessionID groups all events
// of a single request.
type Event struct {
	Type      string
	SessionID uuid.UUID
	Data      EventData
}

// Emitter is the publish mechanism the camera announces state changes
// through.
type Emitter interface {
	Emit(ev Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }

type listener struct {
	id   int
	fn   func(Event)
	once bool
}

// ListenerEmitter is a small synchronous pub/sub Emitter. Not safe for
// concurrent use; the engine is single-threaded by design.
type ListenerEmitter struct {
	nextID    int
	listeners map[string][]listener
}

func NewListenerEmitter() *ListenerEmitter {
	return &ListenerEmitter{listeners: make(map[string][]listener)}
}

// On registers fn for the event type and returns a token for Off.
func (e *ListenerEmitter) On(eventType string, fn func(Event)) int {
	e.nextID++
	e.listeners[eventType] = append(e.listeners[eventType], listener{id: e.nextID, fn: fn})
	return e.nextID
}

// Once registers fn to fire for exactly one event of the given type.
func (e *ListenerEmitter) Once(eventType string, fn func(Event)) int {
	e.nextID++
	e.listeners[eventType] = append(e.listeners[eventType], listener{id: e.nextID, fn: fn, once: true})
	return e.nextID
}

// Off removes the listener registered under the given token.
func (e *ListenerEmitter) Off(eventType string, token int) {
	ls := e.listeners[eventType]
	for i, l := range ls {
		if l.id == token {
			e.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (e *ListenerEmitter) Emit(ev Event) {
	ls := e.listeners[ev.Type]
	// Copy: a handler may register or remove listeners, or start a new
	// transition that emits while we iterate.
	snapshot := make([]listener, len(ls))
	copy(snapshot, ls)
	for _, l := range snapshot {
		if l.once {
			e.Off(ev.Type, l.id)
		}
		l.fn(ev)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// NewNopEmitter returns an Emitter that discards everything.
func NewNopEmitter() Emitter { return nopEmitter{} }
