package message

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wagiedev/agentbridge-go/internal/errors"
)

// Parse decodes one line of worker output into a typed Message.
//
// The logger receives debug information about each parsed line.
//
// Returns JSONDecodeError if the line is not a JSON object, and
// MessageParseError if the type tag is missing or a recognized type lacks
// its required field. Unrecognized type tags are not an error; they are
// returned as *UnknownMessage.
func Parse(log *slog.Logger, line []byte) (Message, error) {
	log = log.With("component", "message_parser")

	var data map[string]any
	if err := json.Unmarshal(line, &data); err != nil {
		return nil, &errors.JSONDecodeError{
			RawData: string(line),
			Err:     err,
		}
	}

	return ParseMap(log, data)
}

// ParseMap converts an already decoded JSON object into a typed Message.
func ParseMap(log *slog.Logger, data map[string]any) (Message, error) {
	msgType, ok := data["type"].(string)
	if !ok {
		log.Debug("Message missing 'type' field")

		return nil, &errors.MessageParseError{
			Message: "missing or invalid 'type' field",
			Err:     fmt.Errorf("missing or invalid 'type' field"),
			Data:    data,
		}
	}

	log.Debug("Parsing message", "message_type", msgType)

	var (
		msg Message
		err error
	)

	switch msgType {
	case TypeStatus:
		msg = parseStatusMessage(data)
	case TypeReady:
		msg = &ReadyMessage{}
	case TypeAnswer:
		var answer string

		answer, err = requireString(data, msgType, "answer")
		msg = &AnswerMessage{Answer: answer}
	case TypeCommandResult:
		var result string

		result, err = requireString(data, msgType, "result")
		msg = &CommandResultMessage{Result: result}
	case TypeCommand:
		var text string

		text, err = requireString(data, msgType, "message")
		msg = &CommandMessage{Message: text}
	case TypeError:
		var text string

		text, err = requireString(data, msgType, "error")
		msg = &ErrorMessage{Error: text}
	case TypeDelegationActivated:
		msg = &DelegationActivatedMessage{Data: data}
	case TypeDelegationError:
		// The payload is forwarded whole; a missing error text is tolerated.
		text, _ := data["error"].(string)
		msg = &DelegationErrorMessage{Error: text, Data: data}
	default:
		log.Debug("Unrecognized message type", "message_type", msgType)

		msg = &UnknownMessage{Type: msgType, Data: data}
	}

	if err != nil {
		return nil, &errors.MessageParseError{
			Message: err.Error(),
			Err:     err,
			Data:    data,
		}
	}

	return msg, nil
}

// parseStatusMessage builds a StatusMessage, defaulting an absent phase to "idle".
func parseStatusMessage(data map[string]any) *StatusMessage {
	msg := &StatusMessage{Phase: "idle"}

	if phase, ok := data["phase"].(string); ok {
		msg.Phase = phase
	}

	if text, ok := data["message"].(string); ok {
		msg.Message = text
	}

	if details, ok := data["details"].(string); ok {
		msg.Details = &details
	}

	return msg
}

func requireString(data map[string]any, msgType, field string) (string, error) {
	v, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("%s message: missing or invalid '%s' field", msgType, field)
	}

	return v, nil
}
