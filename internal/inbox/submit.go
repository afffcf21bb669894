package inbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/revdeskhq/revdesk/internal/logging"
)

// ErrEmptyDraft rejects a blank or whitespace-only draft before any
// network call is made.
var ErrEmptyDraft = errors.New("reply text is empty")

// ErrNoSelection rejects a send with no conversation selected.
var ErrNoSelection = errors.New("no conversation selected")

// ErrSendInFlight rejects a second send while one is already in flight.
var ErrSendInFlight = errors.New("a send is already in flight")

// SendError wraps a remote failure on the send path. The draft is always
// left intact so the user can retry without retyping.
type SendError struct {
	ConversationID string
	Err            error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to conversation %s failed: %v", e.ConversationID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Submitter validates and sends the composed reply. Sends are never
// auto-retried: resubmitting a message is not idempotent at the remote
// API.
type Submitter struct {
	api        API
	session    *Session
	reconciler *Reconciler
	log        zerolog.Logger
}

// NewSubmitter wires the send path to one session. The reconciler is used
// for the forced refresh after a successful send; it may be nil in tests.
func NewSubmitter(api API, session *Session, reconciler *Reconciler) *Submitter {
	return &Submitter{
		api:        api,
		session:    session,
		reconciler: reconciler,
		log:        logging.Component("submitter").With().Str("session_id", session.ID()).Logger(),
	}
}

// Submit sends the current draft to the selected conversation.
//
// The in-flight gate is acquired before the call and released on every
// exit path; automatic refresh stays suppressed for exactly the send
// window regardless of outcome. On success the draft is cleared and one
// immediate refresh runs; on failure the draft is preserved.
func (s *Submitter) Submit(ctx context.Context) error {
	draft := s.session.Draft()
	if strings.TrimSpace(draft) == "" {
		return ErrEmptyDraft
	}
	conversationID := s.session.SelectedID()
	if conversationID == "" {
		return ErrNoSelection
	}

	err := s.sendLocked(ctx, conversationID, draft)
	if err != nil {
		if errors.Is(err, ErrSendInFlight) {
			return err
		}
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("send failed, draft preserved")
		return &SendError{ConversationID: conversationID, Err: err}
	}

	s.session.clearDraft()
	s.log.Info().Str("conversation_id", conversationID).Msg("reply sent")
	if s.reconciler != nil {
		s.reconciler.Tick(ctx)
	}
	return nil
}

// sendLocked performs the network call under the send gate. The deferred
// release guarantees the gate cannot stay held on any exit path.
func (s *Submitter) sendLocked(ctx context.Context, conversationID, draft string) error {
	if !s.session.beginSend() {
		return ErrSendInFlight
	}
	defer s.session.endSend()
	return s.api.SendReply(ctx, conversationID, draft)
}
