package inbox

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/revdeskhq/revdesk/internal/logging"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

// API is the slice of the remote client the engine consumes. *reverb.Client
// satisfies it; tests substitute a fake.
type API interface {
	ListConversations(ctx context.Context, q reverb.ConversationQuery) ([]reverb.Payload, error)
	GetConversation(ctx context.Context, id string) (reverb.Payload, error)
	SendReply(ctx context.Context, id, body string) error
	MarkRead(ctx context.Context, id string) error
}

// Reconciler owns the refresh cycle. It exposes no internal timer: the
// shell invokes Tick on its own schedule, which keeps every cycle
// synchronous and deterministic under test.
type Reconciler struct {
	api     API
	session *Session
	norm    Normalizer
	log     zerolog.Logger

	// PageSize is the per_page value for the list fetch.
	PageSize int

	// OnNewMessage is invoked when the latest message of the selected
	// thread changes between cycles. Optional.
	OnNewMessage func(NewMessageEvent)
}

// NewReconciler wires the refresh engine to one session.
func NewReconciler(api API, session *Session, norm Normalizer) *Reconciler {
	return &Reconciler{
		api:     api,
		session: session,
		norm:    norm,
		log:     logging.Component("reconciler").With().Str("session_id", session.ID()).Logger(),
	}
}

// Tick runs one refresh cycle. A tick arriving while a refresh or send is
// in flight is dropped, not queued. Any fetch failure means "no change
// this cycle": the previously published state stays on screen and the
// error is recorded for display.
func (r *Reconciler) Tick(ctx context.Context) Snapshot {
	if !r.session.beginRefresh() {
		r.log.Debug().Msg("tick dropped, refresh or send in flight")
		return r.session.Snapshot()
	}
	defer r.session.endRefresh()

	r.refresh(ctx)
	return r.session.Snapshot()
}

func (r *Reconciler) refresh(ctx context.Context) {
	snap := r.session.Snapshot()

	raw, err := r.api.ListConversations(ctx, reverb.ConversationQuery{
		PageQuery:  reverb.PageQuery{PerPage: r.PageSize},
		UnreadOnly: snap.UnreadOnly,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("conversation list fetch failed, keeping previous state")
		r.session.recordError(err)
		return
	}

	all := r.norm.Conversations(raw)
	visible := filterConversations(all, snap.SearchQuery)

	// The search filter narrows the list view only; selection survival is
	// judged against the full list so typing a filter cannot steal the
	// open thread.
	selected := snap.SelectedID
	if !containsConversation(all, selected) {
		selected = ""
		if len(visible) > 0 {
			selected = visible[0].ID
		}
	}

	thread := snap.Thread
	if selected == "" {
		thread = nil
	} else {
		fetched, err := r.api.GetConversation(ctx, selected)
		if err != nil {
			r.log.Warn().Err(err).Str("conversation_id", selected).Msg("thread fetch failed, keeping previous thread")
			r.session.recordError(err)
			return
		}
		thread = r.norm.Thread(fetched)
		r.detectNewMessage(selected, thread)
	}

	r.session.publish(visible, selected, thread)
}

// detectNewMessage compares the latest message's fingerprint against the
// stored one for the conversation. The first observation of a thread seeds
// the fingerprint silently; only a later change fires the event. An empty
// thread neither fires nor updates anything.
func (r *Reconciler) detectNewMessage(conversationID string, thread []Message) {
	if len(thread) == 0 {
		return
	}
	last := thread[len(thread)-1]
	fp := Fingerprint(last)

	prev, seen := r.session.fingerprintFor(conversationID)
	if seen && prev == fp {
		return
	}
	r.session.storeFingerprint(conversationID, fp)
	if !seen {
		return
	}

	r.log.Info().Str("conversation_id", conversationID).Str("sender", last.Sender).Msg("new message arrived")
	if r.OnNewMessage != nil {
		r.OnNewMessage(NewMessageEvent{
			ConversationID: conversationID,
			Counterparty:   last.Sender,
			Preview:        TruncatePreview(last.Body, r.norm.previewLength()),
			At:             time.Now(),
		})
	}
}

// Open selects a conversation, marks it read remotely and runs an
// immediate refresh so the thread appears without waiting for the next
// poll.
func (r *Reconciler) Open(ctx context.Context, id string) Snapshot {
	r.session.Select(id)
	if err := r.api.MarkRead(ctx, id); err != nil {
		// Mark-read is cosmetic; a failure must not block opening.
		r.log.Warn().Err(err).Str("conversation_id", id).Msg("mark read failed")
	}
	return r.Tick(ctx)
}

func filterConversations(list []Conversation, query string) []Conversation {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return list
	}
	out := make([]Conversation, 0, len(list))
	for _, conv := range list {
		if strings.Contains(strings.ToLower(conv.Label()), query) {
			out = append(out, conv)
		}
	}
	return out
}

func containsConversation(list []Conversation, id string) bool {
	if id == "" {
		return false
	}
	for _, conv := range list {
		if conv.ID == id {
			return true
		}
	}
	return false
}
