// Package inbox implements the conversation refresh and reply engine: it
// reconciles the remote conversation list against session state on every
// tick, preserves the user's selection and unsent draft across refreshes,
// detects newly arrived messages, and submits replies with the in-flight
// send gate the rest of the app relies on.
package inbox

import "time"

// UnknownUser is the sentinel counterparty name when no name field in the
// fallback chain resolves.
const UnknownUser = "Unknown user"

// GeneralConversation is the sentinel listing title for threads not tied
// to a listing.
const GeneralConversation = "General conversation"

// Conversation is one thread between the seller and a counterparty,
// rebuilt from the remote list on every poll cycle. Only its ID carries
// identity across cycles.
type Conversation struct {
	ID           string
	Counterparty string
	ListingTitle string
	Unread       bool
	Preview      string
	OrderID      string
	OfferPresent bool
}

// Label is the composite display label the local search filter matches
// against: sender, listing and preview in one string.
func (c Conversation) Label() string {
	return c.Counterparty + " " + c.ListingTitle + " " + c.Preview
}

// Message is one entry in a thread. The remote API delivers thread
// messages oldest first; the engine never re-sorts them.
type Message struct {
	ID        string
	Sender    string
	Body      string
	CreatedAt string
}

// NewMessageEvent is emitted when the latest message in the selected
// thread changes between two poll cycles.
type NewMessageEvent struct {
	ConversationID string
	Counterparty   string
	Preview        string
	At             time.Time
}
