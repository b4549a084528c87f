package transport

// Envelope is the wrapper carried by every non-empty response body.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Standard success messages.
const (
	MsgOK      = "OK"
	MsgCreated = "Created"
	MsgDeleted = "Deleted"
)

// NewEnvelope builds a response envelope.
func NewEnvelope(message string, data interface{}) Envelope {
	return Envelope{Message: message, Data: data}
}
