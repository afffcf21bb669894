package reverb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Typed wrappers over Call for every endpoint the dashboard consumes.
// List responses come back as raw payloads; normalization into the
// canonical model is the inbox package's job.

// PageQuery selects a page of a list endpoint.
type PageQuery struct {
	Page    int
	PerPage int
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// ConversationQuery selects a page of the conversation list.
type ConversationQuery struct {
	PageQuery
	UnreadOnly bool
}

// ListConversations fetches the seller's conversation list.
func (c *Client) ListConversations(ctx context.Context, q ConversationQuery) ([]Payload, error) {
	values := q.values()
	if q.UnreadOnly {
		values.Set("unread_only", "true")
	}
	resp, err := c.Call(ctx, http.MethodGet, "/my/conversations", values, nil)
	if err != nil {
		return nil, err
	}
	return collectionOf(resp, "conversations"), nil
}

// GetConversation fetches one full thread.
func (c *Client) GetConversation(ctx context.Context, id string) (Payload, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/my/conversations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return objectOf(resp)
}

// SendReply posts a reply into a conversation. Sending is not idempotent,
// so this call is never auto-retried, not even on a 429.
func (c *Client) SendReply(ctx context.Context, id, body string) error {
	path := "/my/conversations/" + url.PathEscape(id) + "/messages"
	_, err := c.call(ctx, http.MethodPost, path, nil, Payload{"body": body}, callOptions{noRetry: true})
	if err != nil {
		return err
	}
	c.cache.invalidate("/my/conversations")
	return nil
}

// MarkRead marks a conversation as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := "/my/conversations/" + url.PathEscape(id) + "/read"
	_, err := c.Call(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}
	c.cache.invalidate("/my/conversations")
	return nil
}

// ListNotifications fetches the seller's notification feed.
func (c *Client) ListNotifications(ctx context.Context, q PageQuery) ([]Payload, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/my/notifications", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return collectionOf(resp, "notifications"), nil
}

// ListListings fetches the seller's own listings.
func (c *Client) ListListings(ctx context.Context, q PageQuery) ([]Payload, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/my/listings", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return collectionOf(resp, "listings"), nil
}

// GetListing fetches one listing.
func (c *Client) GetListing(ctx context.Context, id string) (Payload, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/listings/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return objectOf(resp)
}

// CreateListing creates a listing from raw fields.
func (c *Client) CreateListing(ctx context.Context, fields Payload) (Payload, error) {
	resp, err := c.Call(ctx, http.MethodPost, "/listings", nil, fields)
	if err != nil {
		return nil, err
	}
	c.cache.invalidate("/listings")
	c.cache.invalidate("/my/listings")
	if resp == nil {
		return nil, nil
	}
	return objectOf(resp)
}

// UpdateListing applies a partial update to a listing.
func (c *Client) UpdateListing(ctx context.Context, id string, fields Payload) error {
	_, err := c.Call(ctx, http.MethodPut, "/listings/"+url.PathEscape(id), nil, fields)
	if err != nil {
		return err
	}
	c.cache.invalidate("/listings")
	c.cache.invalidate("/my/listings")
	return nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	_, err := c.Call(ctx, http.MethodDelete, "/listings/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	c.cache.invalidate("/listings")
	c.cache.invalidate("/my/listings")
	return nil
}

// ListOrders fetches the seller's orders.
func (c *Client) ListOrders(ctx context.Context, q PageQuery) ([]Payload, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/my/orders/selling/all", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return collectionOf(resp, "orders"), nil
}

// ListOffers fetches offers involving the seller.
func (c *Client) ListOffers(ctx context.Context, q PageQuery) ([]Payload, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/my/offers", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return collectionOf(resp, "offers"), nil
}

// VerifyToken checks the session credential by fetching the account
// resource. An APIError with a 401 means the token is bad, not that the
// process should die; the shell re-prompts.
func (c *Client) VerifyToken(ctx context.Context) (Payload, error) {
	resp, err := c.call(ctx, http.MethodGet, "/my/account", nil, nil, callOptions{noCache: true})
	if err != nil {
		return nil, err
	}
	return objectOf(resp)
}

func collectionOf(resp any, key string) []Payload {
	obj, ok := resp.(map[string]any)
	if !ok {
		// Some endpoints return a bare array.
		if raw, ok := resp.([]any); ok {
			out := make([]Payload, 0, len(raw))
			for _, item := range raw {
				if o, ok := item.(map[string]any); ok {
					out = append(out, o)
				}
			}
			return out
		}
		return nil
	}
	return Collection(obj, key)
}

func objectOf(resp any) (Payload, error) {
	obj, ok := resp.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response shape %T", resp)
	}
	return obj, nil
}
