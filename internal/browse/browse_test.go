package browse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/revdeskhq/revdesk/internal/reverb"
)

func payloads(t *testing.T, raw string) []reverb.Payload {
	t.Helper()
	var out []reverb.Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestListings(t *testing.T) {
	out := Listings(payloads(t, `[
		{"id": 101, "title": "Fender Jazzmaster", "state": "live", "price": {"display": "$1,200"}},
		{"title": "no id, dropped"},
		{"id": "102", "title": "Big Muff", "price": {"amount": "80.00", "currency": "USD"}}
	]`))

	require.Len(t, out, 2)
	require.Equal(t, Listing{ID: "101", Title: "Fender Jazzmaster", Price: "$1,200", State: "live"}, out[0])
	require.Equal(t, "80.00 USD", out[1].Price)
}

func TestOrdersResolveBuyerAndTitleFallbacks(t *testing.T) {
	out := Orders(payloads(t, `[
		{"id": 1, "listing": {"title": "Strat"}, "buyer": {"username": "gearhead"}, "status": "shipped", "total": {"display": "$950"}},
		{"id": 2, "title": "Pedalboard", "buyer_name": "ann", "status": "unpaid"}
	]`))

	require.Len(t, out, 2)
	require.Equal(t, "Strat", out[0].Title)
	require.Equal(t, "gearhead", out[0].Buyer)
	require.Equal(t, "$950", out[0].Total)
	require.Equal(t, "Pedalboard", out[1].Title)
	require.Equal(t, "ann", out[1].Buyer)
	require.Empty(t, out[1].Total)
}

func TestOffers(t *testing.T) {
	out := Offers(payloads(t, `[
		{"id": 7, "listing": {"title": "Jaguar"}, "status": "pending", "price": {"display": "$700"}}
	]`))

	require.Len(t, out, 1)
	require.Equal(t, Offer{ID: "7", Title: "Jaguar", Status: "pending", Amount: "$700"}, out[0])
}

func TestNotificationsDropEmptyText(t *testing.T) {
	out := Notifications(payloads(t, `[
		{"text": "You have a new offer", "created_at": "2026-08-01T10:00:00Z", "read": false},
		{"message": "Order shipped", "read": true},
		{"created_at": "no text at all"}
	]`))

	require.Len(t, out, 2)
	require.Equal(t, "You have a new offer", out[0].Text)
	require.False(t, out[0].Read)
	require.Equal(t, "Order shipped", out[1].Text)
	require.True(t, out[1].Read)
}

func TestResourceIDFromSelfLink(t *testing.T) {
	out := Listings(payloads(t, `[
		{"_links": {"self": {"href": "https://api.reverb.com/api/listings/5551"}}, "title": "Linked"}
	]`))
	require.Len(t, out, 1)
	require.Equal(t, "5551", out[0].ID)
}
