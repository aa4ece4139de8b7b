package model

// EventSink consumes monitor events in emission order. Implementations must
// not block the delivery path; slow consumers buffer or drop internally.
type EventSink interface {
	OnEvent(ev MonitorEvent)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ev MonitorEvent)

func (f SinkFunc) OnEvent(ev MonitorEvent) { f(ev) }
