package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/inbox"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

// stubAPI serves canned conversations to the refresh engine.
type stubAPI struct {
	mu            sync.Mutex
	conversations []reverb.Payload
	threads       map[string]reverb.Payload
	sendErr       error
	sent          []string
}

func (s *stubAPI) ListConversations(ctx context.Context, q reverb.ConversationQuery) ([]reverb.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations, nil
}

func (s *stubAPI) GetConversation(ctx context.Context, id string) (reverb.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[id]; ok {
		return t, nil
	}
	return reverb.Payload{"id": id}, nil
}

func (s *stubAPI) SendReply(ctx context.Context, id, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, id+":"+body)
	return nil
}

func (s *stubAPI) MarkRead(ctx context.Context, id string) error { return nil }

func newTestInboxView(t *testing.T, api inbox.API) *inboxView {
	t.Helper()
	cfg := config.DefaultConfig()
	session := inbox.NewSession()
	reconciler := inbox.NewReconciler(api, session, inbox.Normalizer{})
	rt := &runtime{
		session:    session,
		reconciler: reconciler,
		submitter:  inbox.NewSubmitter(api, session, reconciler),
		events:     make(chan inbox.NewMessageEvent, 1),
	}
	return newInboxView(rt, cfg)
}

func conversationPayload(id int, from string) reverb.Payload {
	return reverb.Payload{
		"id":                       fmt.Sprintf("%d", id),
		"last_message_sender_name": from,
	}
}

func TestInboxSnapshotMirrorsDraftIntoCompose(t *testing.T) {
	api := &stubAPI{conversations: []reverb.Payload{conversationPayload(1, "ann")}}
	v := newTestInboxView(t, api)

	v.rt.session.SetDraft("half-typed reply")
	snap := v.rt.reconciler.Tick(context.Background())
	v.Update(snapshotMsg{snap: snap})

	require.Equal(t, "half-typed reply", v.compose.Value())
	require.Len(t, v.snapshot.Conversations, 1)
	require.Equal(t, "1", v.snapshot.SelectedID)
}

func TestInboxComposeKeysUpdateSessionDraft(t *testing.T) {
	api := &stubAPI{conversations: []reverb.Payload{conversationPayload(1, "ann")}}
	v := newTestInboxView(t, api)
	v.Update(snapshotMsg{snap: v.rt.reconciler.Tick(context.Background())})

	v.focus = focusCompose
	v.compose.Focus()
	v.Update(runeKey('h'))
	v.Update(runeKey('i'))

	require.Equal(t, "hi", v.rt.session.Snapshot().Draft)
}

func TestInboxSendFailureKeepsDraftAndReportsIt(t *testing.T) {
	api := &stubAPI{
		conversations: []reverb.Payload{conversationPayload(1, "ann")},
		sendErr:       &reverb.RateLimitedError{Op: "send_reply", Attempts: 1},
	}
	v := newTestInboxView(t, api)
	v.Update(snapshotMsg{snap: v.rt.reconciler.Tick(context.Background())})
	v.rt.session.SetDraft("keep me")
	v.compose.SetValue("keep me")

	msg := v.submitCmd()()
	result, ok := msg.(sendResultMsg)
	require.True(t, ok)
	require.Error(t, result.err)

	v.Update(result)
	require.Equal(t, "keep me", v.compose.Value())
	require.Contains(t, v.status, "draft kept")
	require.Empty(t, api.sent)
}

func TestInboxSendSuccessClearsCompose(t *testing.T) {
	api := &stubAPI{conversations: []reverb.Payload{conversationPayload(1, "ann")}}
	v := newTestInboxView(t, api)
	v.Update(snapshotMsg{snap: v.rt.reconciler.Tick(context.Background())})
	v.rt.session.SetDraft("hello there")
	v.compose.SetValue("hello there")

	result := v.submitCmd()().(sendResultMsg)
	require.NoError(t, result.err)
	v.Update(result)

	require.Empty(t, v.compose.Value())
	require.Equal(t, "reply sent", v.status)
	require.Equal(t, []string{"1:hello there"}, api.sent)
}

func TestInboxNeighborIDWalksVisibleList(t *testing.T) {
	api := &stubAPI{conversations: []reverb.Payload{
		conversationPayload(1, "ann"),
		conversationPayload(2, "ben"),
		conversationPayload(3, "cal"),
	}}
	v := newTestInboxView(t, api)
	v.Update(snapshotMsg{snap: v.rt.reconciler.Tick(context.Background())})
	require.Equal(t, "1", v.snapshot.SelectedID)

	id, ok := v.neighborID(1)
	require.True(t, ok)
	require.Equal(t, "2", id)

	// Already at the top.
	_, ok = v.neighborID(-1)
	require.False(t, ok)
}

func TestInboxEscLeavesComposeFocus(t *testing.T) {
	api := &stubAPI{conversations: []reverb.Payload{conversationPayload(1, "ann")}}
	v := newTestInboxView(t, api)

	v.Update(runeKey('c'))
	require.Equal(t, focusCompose, v.focus)
	require.True(t, v.capturingInput())

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, focusList, v.focus)
	require.False(t, v.capturingInput())
}
