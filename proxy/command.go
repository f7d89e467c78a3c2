package proxy

// CommandKind tags which operation a Command carries. The set below
// covers publication/subscription lifecycle, destination management,
// counter lifecycle, and the conductor's own housekeeping tick — enough
// to exercise every queue and proxy without requiring the out-of-scope
// wire-protocol command set.
type CommandKind int32

const (
	CreatePublication CommandKind = iota
	ClosePublication
	CreateSubscription
	CloseSubscription
	AddDestination
	RemoveDestination
	CreateCounter
	CloseCounter
	ReleaseCounter
	HousekeepingTick
)

// Command is the single tagged record type carried by every inter-agent
// queue. Only the fields relevant to Kind are meaningful; unused fields
// are zero.
type Command struct {
	Kind            CommandKind
	RegistrationID  int64
	StreamID        int32
	SessionID       int32
	Channel         string
	CounterTypeID   int32
	CounterLabel    string
	CounterKey      []byte
}
