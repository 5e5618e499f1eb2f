package core

// Client is an event channel socket as seen by the core layer.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with an outbound queue of the given size.
func NewClient(id string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, queueSize),
	}
}
