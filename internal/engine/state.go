package engine

// State is the orchestrator's position within a cycle.
type State int32

const (
	Idle State = iota
	Sizing
	Receiving
	Received
	ReceiveFailed
	Sending
	Sent
	SendFailed
)

var stateNames = [...]string{
	Idle:          "Idle",
	Sizing:        "Sizing",
	Receiving:     "Receiving",
	Received:      "Received",
	ReceiveFailed: "ReceiveFailed",
	Sending:       "Sending",
	Sent:          "Sent",
	SendFailed:    "SendFailed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}
