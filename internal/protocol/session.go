package protocol

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/agentbridge-go/internal/config"
	"github.com/wagiedev/agentbridge-go/internal/errors"
	"github.com/wagiedev/agentbridge-go/internal/message"
)

// maxStderrInError is how much trailing stderr is attached to a NoResponseError.
const maxStderrInError = 2048

// Session exchanges queries with one worker.
//
// A Session is not safe for concurrent use: the worker's output carries no
// request correlation, so callers must serialize Send.
type Session struct {
	log      *slog.Logger
	worker   config.Worker
	notifier config.Notifier
	timeout  time.Duration

	// abandoned counts queries given up on before their terminal message
	// arrived. That many terminal messages are discarded before the next
	// result is accepted.
	abandoned int
}

// NewSession creates a Session bound to worker.
//
// Options.Notifier and Options.ResponseTimeout are taken from options.
func NewSession(log *slog.Logger, worker config.Worker, options *config.Options) *Session {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Session{
		log:    log.With("component", "session", "pid", worker.Pid()),
		worker: worker,
	}

	if options != nil {
		s.notifier = options.Notifier
		s.timeout = options.ResponseTimeout
	}

	return s
}

// Send writes query to the worker and blocks until its terminal message.
//
// Returns the answer text for answer, command_result and command messages,
// AgentError for an error message, WriteError if the query cannot be
// written and NoResponseError if the worker's output ends, the response
// timeout elapses or ctx is done first.
func (s *Session) Send(ctx context.Context, query string) (string, error) {
	requestID := ulid.Make().String()
	log := s.log.With("request_id", requestID)

	log.Debug("Sending query", "query_len", len(query), "pending_discards", s.abandoned)

	if err := s.worker.Write(ctx, []byte(query)); err != nil {
		log.Error("Failed to write query", "error", err)

		return "", &errors.WriteError{Err: err}
	}

	var timeout <-chan time.Time

	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()

		timeout = timer.C
	}

	for {
		select {
		case line, ok := <-s.worker.Lines():
			if !ok {
				log.Warn("Worker output closed before a terminal message")

				return "", &errors.NoResponseError{
					Reason: "worker output closed",
					Stderr: tail(s.worker.Stderr(), maxStderrInError),
				}
			}

			if result, done, err := s.handleLine(log, line); done {
				return result, err
			}

		case <-timeout:
			s.abandoned++

			log.Warn("Query timed out", "timeout", s.timeout)

			return "", &errors.NoResponseError{
				Reason: fmt.Sprintf("no terminal message within %s", s.timeout),
			}

		case <-ctx.Done():
			s.abandoned++

			log.Debug("Query cancelled", "error", ctx.Err())

			return "", &errors.NoResponseError{Reason: "query abandoned", Err: ctx.Err()}
		}
	}
}

// Abandoned returns how many late terminal messages are still owed to
// queries that stopped waiting.
func (s *Session) Abandoned() int {
	return s.abandoned
}

// handleLine classifies one output line. done reports whether the line
// resolved the current query.
func (s *Session) handleLine(log *slog.Logger, line []byte) (result string, done bool, err error) {
	msg, err := message.Parse(log, line)
	if err != nil {
		// Workers may print incidental non-protocol text.
		log.Debug("Skipping unparseable worker line", "error", err)

		return "", false, nil
	}

	switch m := msg.(type) {
	case *message.StatusMessage:
		s.notify(EventStatusUpdate, StatusUpdate{Phase: m.Phase, Message: m.Message, Details: m.Details})

		return "", false, nil

	case *message.ReadyMessage:
		log.Debug("Worker ready")

		return "", false, nil

	case *message.DelegationActivatedMessage:
		s.notify(EventDelegationActivated, m.Data)

		return "", false, nil

	case *message.DelegationErrorMessage:
		s.notify(EventDelegationError, m.Data)

		return "", false, nil

	case *message.UnknownMessage:
		log.Debug("Ignoring unknown message type", "type", m.Type)

		return "", false, nil
	}

	if s.abandoned > 0 {
		s.abandoned--

		log.Debug("Discarding terminal message of an abandoned query", "type", msg.MessageType())

		return "", false, nil
	}

	switch m := msg.(type) {
	case *message.AnswerMessage:
		return m.Answer, true, nil
	case *message.CommandResultMessage:
		return m.Result, true, nil
	case *message.CommandMessage:
		return m.Message, true, nil
	case *message.ErrorMessage:
		log.Warn("Worker reported an error", "error", m.Error)

		return "", true, &errors.AgentError{Message: m.Error}
	default:
		log.Debug("Ignoring message", "type", msg.MessageType())

		return "", false, nil
	}
}

// notify delivers a notification, ignoring any failure in the notifier.
func (s *Session) notify(name string, payload any) {
	if s.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("Notifier failed", "event", name, "panic", r)
		}
	}()

	s.notifier.Notify(name, payload)
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[len(s)-n:]
}
