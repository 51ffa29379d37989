package topics

import "time"

// Sample is one data message received on a topic. The payload is never
// decoded.
type Sample struct {
	Topic    string
	TypeName string
	Writer   string
	Payload  []byte
	Received time.Time
}
