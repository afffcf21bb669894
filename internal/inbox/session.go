package inbox

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds all per-user-session state: the published conversation
// list, the current selection, the unsent draft, the send/refresh gates
// and the per-conversation last-seen fingerprints. One Session exists per
// user session; nothing in it survives logout, and nothing is ever written
// to durable storage.
//
// The engine is driven by a cooperatively scheduled shell, but bubbletea
// runs commands on their own goroutines, so field access is guarded by a
// mutex. The send gate is still a boolean, not a lock: a tick that arrives
// while a send is in flight is dropped, never queued.
type Session struct {
	id string

	mu            sync.Mutex
	conversations []Conversation
	selectedID    string
	thread        []Message
	draft         string
	searchQuery   string
	unreadOnly    bool
	refreshing    bool
	sending       bool
	lastSeen      map[string]string
	lastErr       error
	lastRefresh   time.Time
	accountName   string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		id:       uuid.NewString(),
		lastSeen: make(map[string]string),
	}
}

// ID is the session correlation id used in log fields. It is generated
// locally and carries no credential material.
func (s *Session) ID() string { return s.id }

// Snapshot is an immutable copy of the publishable session state, handed
// to the shell for rendering.
type Snapshot struct {
	Conversations []Conversation
	SelectedID    string
	Thread        []Message
	Draft         string
	SearchQuery   string
	UnreadOnly    bool
	Sending       bool
	LastErr       error
	LastRefresh   time.Time
	AccountName   string
}

// Snapshot returns a copy of the current publishable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Conversations: append([]Conversation(nil), s.conversations...),
		SelectedID:    s.selectedID,
		Thread:        append([]Message(nil), s.thread...),
		Draft:         s.draft,
		SearchQuery:   s.searchQuery,
		UnreadOnly:    s.unreadOnly,
		Sending:       s.sending,
		LastErr:       s.lastErr,
		LastRefresh:   s.lastRefresh,
		AccountName:   s.accountName,
	}
}

// SelectedID returns the currently selected conversation id.
func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Select changes the selection. The thread content for the new selection
// arrives on the next refresh.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
}

// Draft returns the unsent draft text.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft stores in-progress reply text. Refreshes never touch it.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *Session) clearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = ""
}

// SetSearchQuery stores the local list filter string.
func (s *Session) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = strings.TrimSpace(q)
}

// SetUnreadOnly toggles the server-side unread filter.
func (s *Session) SetUnreadOnly(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreadOnly = v
}

// SetAccountName records the display name confirmed at token verification.
func (s *Session) SetAccountName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountName = name
}

// beginRefresh acquires the refresh gate. It fails when a refresh is
// already running (re-entrancy guard) or a send is in flight (ticks are
// suppressed, not queued, for the whole send window).
func (s *Session) beginRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshing || s.sending {
		return false
	}
	s.refreshing = true
	return true
}

func (s *Session) endRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = false
}

// beginSend acquires the send gate. At most one outbound send may be in
// flight system-wide; a concurrent refresh also blocks acquisition so a
// send never races a list merge.
func (s *Session) beginSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending || s.refreshing {
		return false
	}
	s.sending = true
	return true
}

// endSend releases the send gate. Callers pair it with beginSend via
// defer so no exit path can leave the gate held.
func (s *Session) endSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
}

// SendingInFlight reports whether a send currently holds the gate.
func (s *Session) SendingInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

func (s *Session) fingerprintFor(conversationID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.lastSeen[conversationID]
	return fp, ok
}

func (s *Session) storeFingerprint(conversationID, fp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[conversationID] = fp
}

// publish installs the outcome of a successful refresh. The draft is
// deliberately untouched.
func (s *Session) publish(conversations []Conversation, selectedID string, thread []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = conversations
	s.selectedID = selectedID
	s.thread = thread
	s.lastErr = nil
	s.lastRefresh = time.Now()
}

// recordError notes a failed cycle without clearing previously published
// data, so a transient blip never blanks the screen.
func (s *Session) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Logout clears everything the session accumulated.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = nil
	s.selectedID = ""
	s.thread = nil
	s.draft = ""
	s.searchQuery = ""
	s.lastSeen = make(map[string]string)
	s.lastErr = nil
	s.accountName = ""
}
