package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	SlotRemoved Type = iota + 1
	CycleStarted
	StorageFull
	ReceiveStarted
	ReceiveCompleted
	ReceiveFailed
	SlotVerified
	SendStarted
	SendCompleted
	SendFailed
)

var typeNames = [...]string{
	SlotRemoved:      "SlotRemoved",
	CycleStarted:     "CycleStarted",
	StorageFull:      "StorageFull",
	ReceiveStarted:   "ReceiveStarted",
	ReceiveCompleted: "ReceiveCompleted",
	ReceiveFailed:    "ReceiveFailed",
	SlotVerified:     "SlotVerified",
	SendStarted:      "SendStarted",
	SendCompleted:    "SendCompleted",
	SendFailed:       "SendFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single progress report from the orchestrator.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // slot path in the store
	Name      string // name announced by the sender
	Digest    string // SlotVerified: hex BLAKE3 of the slot
	Type      Type
	Slot      int
	Size      int64  // bytes received or sent
	Limit     uint64 // ReceiveStarted: ceiling; StorageFull: usable bytes
	Code      int    // transfer status code on failure
}
