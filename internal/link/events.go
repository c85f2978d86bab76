package link

import (
	"context"
	"log/slog"
)

// EventType classifies a transport event published by a Port.
type EventType int

const (
	EventData            EventType = iota + 1 // a data frame arrived
	EventFIFOOverflow                         // events were dropped because the queue was full
	EventBufferFull                           // the inbound buffer filled up
	EventBreak                                // the peer dropped the connection mid-session
	EventParityError                          // a transfer failed its checksum
	EventFrameError                           // a frame could not be decoded
	EventPatternDetected                      // the sender sent an abort marker
)

var eventNames = [...]string{
	EventData:            "Data",
	EventFIFOOverflow:    "FIFOOverflow",
	EventBufferFull:      "BufferFull",
	EventBreak:           "Break",
	EventParityError:     "ParityError",
	EventFrameError:      "FrameError",
	EventPatternDetected: "PatternDetected",
}

func (t EventType) String() string {
	if t > 0 && int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "Unknown"
}

// Event is a single transport notification.
type Event struct {
	Session string
	Type    EventType
	Size    int
}

// Flusher discards buffered inbound bytes.
type Flusher interface {
	Flush()
}

// HandleEvents consumes transport events until ctx is done or events is
// closed. Overflow and buffer-full events flush the inbound buffer; all other
// events are logged and otherwise ignored.
func HandleEvents(ctx context.Context, events <-chan Event, f Flusher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case EventFIFOOverflow, EventBufferFull:
				logger.Warn("link overrun, flushing input", "event", ev.Type, "session", ev.Session)
				f.Flush()
			case EventData:
				logger.Debug("link data", "bytes", ev.Size, "session", ev.Session)
			default:
				logger.Info("link event", "event", ev.Type, "session", ev.Session)
			}
		}
	}
}
