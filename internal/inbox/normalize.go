package inbox

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/revdeskhq/revdesk/internal/reverb"
)

// Normalizer translates the remote API's inconsistent conversation and
// message shapes into the canonical model. Every resolver is total: a
// missing or wrong-typed nested value reads as absent, never as a failure.
type Normalizer struct {
	// PreviewLength bounds the conversation preview text.
	PreviewLength int
}

// DefaultPreviewLength bounds previews when the normalizer is constructed
// with a zero value.
const DefaultPreviewLength = 100

func (n Normalizer) previewLength() int {
	if n.PreviewLength > 0 {
		return n.PreviewLength
	}
	return DefaultPreviewLength
}

// Conversation normalizes one raw list entry. ok is false when no id can
// be resolved; such entries are dropped, never surfaced.
func (n Normalizer) Conversation(raw reverb.Payload) (Conversation, bool) {
	id, ok := ResolveConversationID(raw)
	if !ok {
		return Conversation{}, false
	}

	preview, _ := reverb.Str(raw, "last_message_preview")
	if preview == "" {
		preview, _ = reverb.DigStr(raw, "last_message", "body")
	}

	unread, _ := reverb.Bool(raw, "unread")

	conv := Conversation{
		ID:           id,
		Counterparty: ResolveCounterpartyName(raw),
		ListingTitle: ResolveListingTitle(raw),
		Unread:       unread,
		Preview:      TruncatePreview(preview, n.previewLength()),
	}

	if orderID, ok := stringishField(raw, "order_id"); ok {
		conv.OrderID = orderID
	}
	if _, ok := reverb.Obj(raw, "offer"); ok {
		conv.OfferPresent = true
	} else if hasOffer, _ := reverb.Bool(raw, "has_offer"); hasOffer {
		conv.OfferPresent = true
	}

	return conv, true
}

// Conversations normalizes a raw list, dropping entries without a
// resolvable id.
func (n Normalizer) Conversations(raw []reverb.Payload) []Conversation {
	out := make([]Conversation, 0, len(raw))
	for _, entry := range raw {
		if conv, ok := n.Conversation(entry); ok {
			out = append(out, conv)
		}
	}
	return out
}

// Thread normalizes the message list of a thread payload, preserving the
// received (oldest first) order.
func (n Normalizer) Thread(raw reverb.Payload) []Message {
	items := reverb.Collection(raw, "messages")
	out := make([]Message, 0, len(items))
	for _, item := range items {
		out = append(out, n.message(item))
	}
	return out
}

func (n Normalizer) message(raw reverb.Payload) Message {
	msg := Message{}
	if id, ok := stringishField(raw, "id"); ok {
		msg.ID = id
	}
	if sender, ok := reverb.Str(raw, "sender_name"); ok {
		msg.Sender = sender
	} else if sender, ok := reverb.DigStr(raw, "from", "name"); ok {
		msg.Sender = sender
	} else {
		msg.Sender = UnknownUser
	}
	if body, ok := reverb.Str(raw, "body"); ok {
		msg.Body = body
	}
	if created, ok := reverb.Str(raw, "created_at"); ok {
		msg.CreatedAt = created
	}
	return msg
}

// ResolveConversationID derives a stable id: the explicit id field first,
// then the alternate conversation_id, then the trailing segment of the
// self link. ok is false when all three are absent.
func ResolveConversationID(raw reverb.Payload) (string, bool) {
	if id, ok := stringishField(raw, "id"); ok {
		return id, true
	}
	if id, ok := stringishField(raw, "conversation_id"); ok {
		return id, true
	}
	if href, ok := reverb.SelfLink(raw); ok {
		if seg := trailingSegment(href); seg != "" {
			return seg, true
		}
	}
	return "", false
}

// ResolveCounterpartyName walks the documented fallback chain. Blank
// strings count as absent, so a lower-priority field can still win.
func ResolveCounterpartyName(raw reverb.Payload) string {
	if name, ok := reverb.Str(raw, "last_message_sender_name"); ok {
		return name
	}
	if name, ok := reverb.DigStr(raw, "other_party", "username"); ok {
		return name
	}
	if name, ok := reverb.DigStr(raw, "buyer", "username"); ok {
		return name
	}
	if name, ok := reverb.DigStr(raw, "seller", "username"); ok {
		return name
	}
	return UnknownUser
}

// ResolveListingTitle reads the listing title, checking one level of
// embedded wrapping, and falls back to the general-conversation sentinel.
func ResolveListingTitle(raw reverb.Payload) string {
	if title, ok := reverb.DigStr(raw, "listing", "title"); ok {
		return title
	}
	if title, ok := reverb.DigStr(raw, "_embedded", "listing", "title"); ok {
		return title
	}
	return GeneralConversation
}

// TruncatePreview hard-truncates text to maxLen characters. Missing text
// reads as empty; truncation is by rune so a multibyte character is never
// split.
func TruncatePreview(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}

// Fingerprint derives the change-detection key for a message. The remote
// id is preferred when present; otherwise a non-cryptographic digest of
// timestamp, sender and body stands in. Two different messages from the
// same sender in the same instant with identical text collide, which
// degrades to a missed notification and nothing worse.
func Fingerprint(msg Message) string {
	if msg.ID != "" {
		return "id:" + msg.ID
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", msg.CreatedAt, msg.Sender, msg.Body)
	return "fp:" + strconv.FormatUint(h.Sum64(), 16)
}

// stringishField reads a field that the API serves as either a string or
// a number, normalizing to a string.
func stringishField(raw reverb.Payload, key string) (string, bool) {
	if s, ok := reverb.Str(raw, key); ok {
		return s, true
	}
	if f, ok := reverb.Num(raw, key); ok {
		// Ids are integral; trim the float64 decoding artifact.
		return strconv.FormatInt(int64(f), 10), true
	}
	return "", false
}

func trailingSegment(href string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(href), "/")
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}
