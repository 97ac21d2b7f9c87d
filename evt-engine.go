package dtnsim

// evt-engine.go adapts the iti/evt event manager to the simulator. Simulated time is kept
// in milliseconds; the event manager counts vrtime ticks and breaks ties at an instant by
// the time-stamp priority, which is set from the runner id, so events scheduled for the
// same instant fire in runner order.

import (
	"math"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// horizonSeconds stands in for an unbounded run limit; it stays inside the int64 tick range
const horizonSeconds float64 = 9e8

// EventHandlerFunction is the signature of every event callback. context is the object
// that scheduled the event (a Contact, a Node, a generator), data the argument.
type EventHandlerFunction func(eng *EventEngine, context any, data any) any

type eventKey struct {
	ticks    int64
	runnerID int
}

type evtEntry struct {
	time    float64
	key     eventKey
	context any
	data    any
	handler EventHandlerFunction
}

// EventEngine is a single threaded scheduler. Handlers run to completion one at
// a time and may schedule further events.
type EventEngine struct {
	mgr        *evtm.EventManager
	now        float64
	pending    map[eventKey]bool
	nxtRunner  int
	dispatched int
}

// CreateEventEngine is a constructor
func CreateEventEngine() *EventEngine {
	eng := new(EventEngine)
	eng.mgr = evtm.New()
	eng.pending = make(map[eventKey]bool)
	return eng
}

func msToSeconds(ms float64) float64 {
	secs := ms / 1000.0
	if secs > horizonSeconds {
		secs = horizonSeconds
	}
	return secs
}

func msToTicks(ms float64) int64 {
	return vrtime.SecondsToTicks(msToSeconds(ms))
}

// Now returns the simulated time in milliseconds: the time of the event being
// dispatched, or, between runs, the limit the last Run reached
func (eng *EventEngine) Now() float64 {
	return eng.now
}

// Pending returns the number of scheduled events that have not fired
func (eng *EventEngine) Pending() int {
	return eng.mgr.EventList.Len()
}

// Dispatched returns the number of events fired so far
func (eng *EventEngine) Dispatched() int {
	return eng.dispatched
}

// RegisterRunner gives the caller a fresh runner id and schedules handler
// to be called with it at time 0 (or at once, if the run is under way)
func (eng *EventEngine) RegisterRunner(context any, handler EventHandlerFunction) int {
	rid := eng.NewRunnerID()
	eng.RegisterEvent(0, rid, context, rid, handler)
	return rid
}

// NewRunnerID reserves a runner id without scheduling anything
func (eng *EventEngine) NewRunnerID() int {
	rid := eng.nxtRunner
	eng.nxtRunner += 1
	return rid
}

// RegisterEvent schedules handler(context, data) at the given time on behalf of the runner.
// Times earlier than Now are moved up to Now. A runner may hold at most one pending event
// per instant; a second one means the caller has lost track of its own schedule, and is
// treated as a fatal error.
func (eng *EventEngine) RegisterEvent(time float64, runnerID int, context any, data any, handler EventHandlerFunction) {
	if time < eng.now {
		time = eng.now
	}
	key := eventKey{ticks: msToTicks(time), runnerID: runnerID}
	if eng.pending[key] {
		panic(newSimError(ErrDuplicateEvent, "runner %d already has an event at time %g", runnerID, time))
	}
	eng.pending[key] = true

	entry := &evtEntry{time: time, key: key, context: context, data: data, handler: handler}
	offset := vrtime.CreateTime(key.ticks-eng.mgr.CurrentTicks(), int64(runnerID)+1)
	eng.mgr.Schedule(eng, entry, dispatchEntry, offset)
}

// dispatchEntry is the event manager's view of every simulator event
func dispatchEntry(mgr *evtm.EventManager, context any, data any) any {
	eng := context.(*EventEngine)
	entry := data.(*evtEntry)
	delete(eng.pending, entry.key)
	if entry.time > eng.now {
		eng.now = entry.time
	}
	eng.dispatched += 1
	return entry.handler(eng, entry.context, entry.data)
}

// due reports whether the earliest queued event lies at or before limit
func (eng *EventEngine) due(limit int64) bool {
	return eng.mgr.EventList.Len() > 0 && eng.mgr.EventList.MinTime().Ticks() <= limit
}

// Run dispatches events in order until the queue is empty or the next event lies
// beyond 'until', and advances the clock to 'until'. Later events stay queued, so a
// later call picks up where this one stopped.
func (eng *EventEngine) Run(until float64) {
	limitSecs := msToSeconds(until)
	limit := vrtime.SecondsToTicks(limitSecs)

	// the event manager stops once its clock reaches the limit, which can leave
	// events stamped with the limit itself queued
	for eng.due(limit) {
		eng.mgr.Run(limitSecs)
	}

	if !math.IsInf(until, 1) && until > eng.now {
		eng.now = until
	}
	eng.mgr.SetTime(vrtime.CreateTime(msToTicks(eng.now), 0))
}
