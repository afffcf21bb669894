// Package browse normalizes the read-only marketplace resources: listings,
// orders, offers and the notification feed. These screens are plain list
// renders; the same defensive field resolution as the inbox applies, but
// there is no reconciliation, just shape flattening for display.
package browse

import (
	"strconv"

	"github.com/revdeskhq/revdesk/internal/reverb"
)

// Listing is one of the seller's own listings.
type Listing struct {
	ID    string
	Title string
	Price string
	State string
}

// Order is one sale.
type Order struct {
	ID     string
	Title  string
	Buyer  string
	Status string
	Total  string
}

// Offer is one open or settled offer.
type Offer struct {
	ID     string
	Title  string
	Status string
	Amount string
}

// Notification is one entry of the notification feed.
type Notification struct {
	Text      string
	CreatedAt string
	Read      bool
}

// Listings flattens raw listing payloads. Entries without a resolvable id
// are dropped.
func Listings(raw []reverb.Payload) []Listing {
	out := make([]Listing, 0, len(raw))
	for _, p := range raw {
		id, ok := resourceID(p)
		if !ok {
			continue
		}
		title, _ := reverb.Str(p, "title")
		state, _ := reverb.Str(p, "state")
		if state == "" {
			state, _ = reverb.DigStr(p, "state", "slug")
		}
		out = append(out, Listing{
			ID:    id,
			Title: title,
			Price: money(p, "price"),
			State: state,
		})
	}
	return out
}

// Orders flattens raw order payloads.
func Orders(raw []reverb.Payload) []Order {
	out := make([]Order, 0, len(raw))
	for _, p := range raw {
		id, ok := resourceID(p)
		if !ok {
			continue
		}
		title, _ := reverb.Str(p, "title")
		if title == "" {
			title, _ = reverb.DigStr(p, "listing", "title")
		}
		buyer, _ := reverb.Str(p, "buyer_name")
		if buyer == "" {
			buyer, _ = reverb.DigStr(p, "buyer", "username")
		}
		status, _ := reverb.Str(p, "status")
		out = append(out, Order{
			ID:     id,
			Title:  title,
			Buyer:  buyer,
			Status: status,
			Total:  money(p, "total"),
		})
	}
	return out
}

// Offers flattens raw offer payloads.
func Offers(raw []reverb.Payload) []Offer {
	out := make([]Offer, 0, len(raw))
	for _, p := range raw {
		id, ok := resourceID(p)
		if !ok {
			continue
		}
		title, _ := reverb.DigStr(p, "listing", "title")
		status, _ := reverb.Str(p, "status")
		out = append(out, Offer{
			ID:     id,
			Title:  title,
			Status: status,
			Amount: money(p, "price"),
		})
	}
	return out
}

// Notifications flattens the notification feed. Entries without text are
// dropped rather than rendered blank.
func Notifications(raw []reverb.Payload) []Notification {
	out := make([]Notification, 0, len(raw))
	for _, p := range raw {
		text, ok := reverb.Str(p, "text")
		if !ok {
			text, ok = reverb.Str(p, "message")
		}
		if !ok {
			continue
		}
		created, _ := reverb.Str(p, "created_at")
		read, _ := reverb.Bool(p, "read")
		out = append(out, Notification{
			Text:      text,
			CreatedAt: created,
			Read:      read,
		})
	}
	return out
}

// money reads a price object, preferring the display string over the raw
// amount+currency pair.
func money(p reverb.Payload, key string) string {
	price, ok := reverb.Obj(p, key)
	if !ok {
		return ""
	}
	if display, ok := reverb.Str(price, "display"); ok {
		return display
	}
	amount, ok := reverb.Str(price, "amount")
	if !ok {
		return ""
	}
	if currency, ok := reverb.Str(price, "currency"); ok {
		return amount + " " + currency
	}
	return amount
}

func resourceID(p reverb.Payload) (string, bool) {
	if id, ok := reverb.Str(p, "id"); ok {
		return id, true
	}
	if f, ok := reverb.Num(p, "id"); ok {
		return strconv.FormatInt(int64(f), 10), true
	}
	if href, ok := reverb.SelfLink(p); ok && href != "" {
		// Trailing path segment, same derivation as conversations.
		for i := len(href) - 1; i >= 0; i-- {
			if href[i] == '/' {
				if seg := href[i+1:]; seg != "" {
					return seg, true
				}
				break
			}
		}
	}
	return "", false
}
