package ui

import "github.com/bamsammich/flashdrop/internal/event"

// Event is the orchestrator event the presenters consume.
type Event = event.Event

// Re-export event types for convenience.
const (
	SlotRemoved      = event.SlotRemoved
	CycleStarted     = event.CycleStarted
	StorageFull      = event.StorageFull
	ReceiveStarted   = event.ReceiveStarted
	ReceiveCompleted = event.ReceiveCompleted
	ReceiveFailed    = event.ReceiveFailed
	SlotVerified     = event.SlotVerified
	SendStarted      = event.SendStarted
	SendCompleted    = event.SendCompleted
	SendFailed       = event.SendFailed
)
