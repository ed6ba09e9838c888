package message

// Message type tags as written by the worker.
const (
	TypeStatus              = "status"
	TypeReady               = "ready"
	TypeAnswer              = "answer"
	TypeCommandResult       = "command_result"
	TypeCommand             = "command"
	TypeError               = "error"
	TypeDelegationActivated = "delegation_activated"
	TypeDelegationError     = "delegation_error"
)

// Message represents one line of worker output.
// Use a type switch to determine the concrete type. The set of
// implementations is closed to this package.
type Message interface {
	MessageType() string
	message()
}

// Compile-time verification that all message types implement Message.
var (
	_ Message = (*StatusMessage)(nil)
	_ Message = (*ReadyMessage)(nil)
	_ Message = (*AnswerMessage)(nil)
	_ Message = (*CommandResultMessage)(nil)
	_ Message = (*CommandMessage)(nil)
	_ Message = (*ErrorMessage)(nil)
	_ Message = (*DelegationActivatedMessage)(nil)
	_ Message = (*DelegationErrorMessage)(nil)
	_ Message = (*UnknownMessage)(nil)
)

// StatusMessage reports progress while a query is being processed.
type StatusMessage struct {
	Phase   string  `json:"phase"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// MessageType implements Message.
func (m *StatusMessage) MessageType() string { return TypeStatus }

func (*StatusMessage) message() {}

// ReadyMessage signals that the worker finished initializing.
type ReadyMessage struct{}

// MessageType implements Message.
func (m *ReadyMessage) MessageType() string { return TypeReady }

func (*ReadyMessage) message() {}

// AnswerMessage carries the final answer to a natural-language query.
type AnswerMessage struct {
	Answer string `json:"answer"`
}

// MessageType implements Message.
func (m *AnswerMessage) MessageType() string { return TypeAnswer }

func (*AnswerMessage) message() {}

// CommandResultMessage carries the output of a slash command.
type CommandResultMessage struct {
	Result string `json:"result"`
}

// MessageType implements Message.
func (m *CommandResultMessage) MessageType() string { return TypeCommandResult }

func (*CommandResultMessage) message() {}

// CommandMessage carries an acknowledgement for a slash command.
type CommandMessage struct {
	Message string `json:"message"`
}

// MessageType implements Message.
func (m *CommandMessage) MessageType() string { return TypeCommand }

func (*CommandMessage) message() {}

// ErrorMessage reports that the worker failed to process the query.
type ErrorMessage struct {
	Error string `json:"error"`
}

// MessageType implements Message.
func (m *ErrorMessage) MessageType() string { return TypeError }

func (*ErrorMessage) message() {}

// DelegationActivatedMessage reports that a wallet delegation became active.
// Data holds the complete decoded line.
type DelegationActivatedMessage struct {
	Data map[string]any `json:"-"`
}

// MessageType implements Message.
func (m *DelegationActivatedMessage) MessageType() string { return TypeDelegationActivated }

func (*DelegationActivatedMessage) message() {}

// DelegationErrorMessage reports a failure while processing a delegation.
// Data holds the complete decoded line.
type DelegationErrorMessage struct {
	Error string         `json:"error"`
	Data  map[string]any `json:"-"`
}

// MessageType implements Message.
func (m *DelegationErrorMessage) MessageType() string { return TypeDelegationError }

func (*DelegationErrorMessage) message() {}

// UnknownMessage is a well-formed line whose type tag is not recognized.
type UnknownMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"-"`
}

// MessageType implements Message.
func (m *UnknownMessage) MessageType() string { return m.Type }

func (*UnknownMessage) message() {}
