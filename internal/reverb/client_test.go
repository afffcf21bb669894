package reverb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURL:      srv.URL,
		Token:        "test-token-0123456789",
		Timeout:      2 * time.Second,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
		CacheTTL:     time.Minute,
	})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, srv
}

func TestCallSetsAuthAndVersionHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, `{"ok":true}`)
	}))

	_, err := c.Call(context.Background(), http.MethodGet, "/my/account", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer test-token-0123456789", got.Get("Authorization"))
	require.Equal(t, "application/hal+json", got.Get("Accept"))
	require.Equal(t, "3.0", got.Get("Accept-Version"))
	require.Equal(t, "revdesk/1.0", got.Get("User-Agent"))
	require.Empty(t, got.Get("X-Display-Currency"))
}

func TestCallSetsDisplayCurrencyWhenConfigured(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, Token: "tok", DisplayCurrency: "EUR"})
	_, err := c.Call(context.Background(), http.MethodGet, "/my/listings", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "EUR", got.Get("X-Display-Currency"))
}

func TestCallRetriesRateLimitedGet(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"conversations":[]}`)
	}))

	_, err := c.Call(context.Background(), http.MethodGet, "/my/conversations", nil, nil)
	require.NoError(t, err)
	require.Equal(t, int32(3), hits.Load())
}

func TestCallSurfacesRateLimitedAfterBudget(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Call(context.Background(), http.MethodGet, "/my/conversations", nil, nil)
	require.True(t, IsRateLimited(err))
	require.Equal(t, int32(3), hits.Load())

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, 3, rl.Attempts)
}

func TestSendReplyNeverRetries(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := c.SendReply(context.Background(), "123", "hello")
	require.True(t, IsRateLimited(err))
	require.Equal(t, int32(1), hits.Load(), "a send must hit the wire exactly once")
}

func TestSendReplyPostsBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, c.SendReply(context.Background(), "42", "still available?"))
	require.Equal(t, "/my/conversations/42/messages", gotPath)
	require.Equal(t, "still available?", gotBody["body"])
}

func TestCallDoesNotRetryOtherErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"nope"}`)
	}))

	_, err := c.Call(context.Background(), http.MethodGet, "/my/listings", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, int32(1), hits.Load())
}

type flakyTransport struct {
	failures int32
	inner    http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return nil, errors.New("connection reset by peer")
	}
	return f.inner.RoundTrip(r)
}

func TestGetRetriesTransportFailureOnce(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	}))
	c.httpClient.Transport = &flakyTransport{failures: 1, inner: http.DefaultTransport}

	_, err := c.Call(context.Background(), http.MethodGet, "/my/account", nil, nil)
	require.NoError(t, err)
}

func TestGetSurfacesTransportErrorAfterSecondFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	}))
	c.httpClient.Transport = &flakyTransport{failures: 2, inner: http.DefaultTransport}

	_, err := c.Call(context.Background(), http.MethodGet, "/my/account", nil, nil)
	require.True(t, IsTransport(err))
}

func TestPostDoesNotRetryTransportFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	tr := &flakyTransport{failures: 1, inner: http.DefaultTransport}
	c.httpClient.Transport = tr

	_, err := c.Call(context.Background(), http.MethodPost, "/my/conversations/1/read", nil, nil)
	require.True(t, IsTransport(err), "mutations must not be replayed after a transport failure")
}

func TestGetServedFromCacheWithinTTL(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"conversations":[{"id":1}]}`)
	}))

	_, err := c.ListConversations(context.Background(), ConversationQuery{})
	require.NoError(t, err)
	_, err = c.ListConversations(context.Background(), ConversationQuery{})
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestMutationInvalidatesConversationCache(t *testing.T) {
	var gets atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			fmt.Fprint(w, `{"conversations":[]}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	_, err := c.ListConversations(context.Background(), ConversationQuery{})
	require.NoError(t, err)
	require.NoError(t, c.SendReply(context.Background(), "9", "thanks!"))
	_, err = c.ListConversations(context.Background(), ConversationQuery{})
	require.NoError(t, err)
	require.Equal(t, int32(2), gets.Load(), "send must invalidate the conversation list cache")
}

func TestUnreadOnlyAndPagingQuery(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"conversations":[]}`)
	}))

	_, err := c.ListConversations(context.Background(), ConversationQuery{
		PageQuery:  PageQuery{Page: 2, PerPage: 25},
		UnreadOnly: true,
	})
	require.NoError(t, err)
	require.Contains(t, gotQuery, "unread_only=true")
	require.Contains(t, gotQuery, "page=2")
	require.Contains(t, gotQuery, "per_page=25")
}

func TestVerifyTokenUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.VerifyToken(context.Background())
	require.True(t, IsUnauthorized(err))
}

func TestCollectionUnwrapsEmbedded(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"_embedded":{"listings":[{"id":"a"},{"id":"b"}]}}`)
	}))

	listings, err := c.ListListings(context.Background(), PageQuery{})
	require.NoError(t, err)
	require.Len(t, listings, 2)
}
