package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/revdeskhq/revdesk/internal/reverb"
)

func newSendFixture(api *fakeAPI) (*Submitter, *Reconciler, *Session) {
	session := NewSession()
	reconciler := NewReconciler(api, session, Normalizer{})
	return NewSubmitter(api, session, reconciler), reconciler, session
}

func TestSubmitRejectsWhitespaceDraftLocally(t *testing.T) {
	api := &fakeAPI{}
	submitter, _, session := newSendFixture(api)
	session.Select("1")
	session.SetDraft("   ")

	err := submitter.Submit(context.Background())
	require.ErrorIs(t, err, ErrEmptyDraft)
	require.Equal(t, 0, api.sendCalls, "validation failure must not reach the network")
	require.Equal(t, "   ", session.Draft())
}

func TestSubmitRequiresSelection(t *testing.T) {
	api := &fakeAPI{}
	submitter, _, session := newSendFixture(api)
	session.SetDraft("hello")

	require.ErrorIs(t, submitter.Submit(context.Background()), ErrNoSelection)
	require.Equal(t, 0, api.sendCalls)
}

func TestSubmitSuccessClearsDraftAndRefreshes(t *testing.T) {
	api := &fakeAPI{conversations: []reverb.Payload{conv("1", "ann", "a")}}
	submitter, _, session := newSendFixture(api)
	session.Select("1")
	session.SetDraft("yes, still available")

	require.NoError(t, submitter.Submit(context.Background()))
	require.Equal(t, []string{"1:yes, still available"}, api.sent)
	require.Empty(t, session.Draft())
	require.Equal(t, 1, api.listCalls, "a successful send forces one immediate refresh")
	require.False(t, session.SendingInFlight())
}

func TestSubmitFailurePreservesDraft(t *testing.T) {
	api := &fakeAPI{sendErr: &reverb.RateLimitedError{Op: "POST /my/conversations/1/messages", Attempts: 1}}
	submitter, _, session := newSendFixture(api)
	session.Select("1")
	session.SetDraft("please hold this")

	err := submitter.Submit(context.Background())
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	require.True(t, reverb.IsRateLimited(err))
	require.Equal(t, 1, api.sendCalls, "a rate-limited send is never auto-retried")
	require.Equal(t, "please hold this", session.Draft())
	require.Equal(t, 0, api.listCalls, "no forced refresh after a failed send")
	require.False(t, session.SendingInFlight(), "the gate is released on failure")
}

func TestSubmitGateReleasedAfterFailureAllowsRetry(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("boom")}
	submitter, _, session := newSendFixture(api)
	session.Select("1")
	session.SetDraft("retry me")

	require.Error(t, submitter.Submit(context.Background()))

	api.mu.Lock()
	api.sendErr = nil
	api.mu.Unlock()

	require.NoError(t, submitter.Submit(context.Background()))
	require.Equal(t, 2, api.sendCalls)
}

func TestSubmitRejectedWhileSendInFlight(t *testing.T) {
	api := &fakeAPI{}
	submitter, _, session := newSendFixture(api)
	session.Select("1")
	session.SetDraft("double trigger")

	require.True(t, session.beginSend())
	err := submitter.Submit(context.Background())
	require.ErrorIs(t, err, ErrSendInFlight)
	require.Equal(t, 0, api.sendCalls)
	session.endSend()
}

func TestSubmitRejectedDuringActiveRefresh(t *testing.T) {
	api := &fakeAPI{}
	submitter, _, session := newSendFixture(api)
	session.Select("1")
	session.SetDraft("mid refresh")

	require.True(t, session.beginRefresh())
	err := submitter.Submit(context.Background())
	require.ErrorIs(t, err, ErrSendInFlight)
	session.endRefresh()
}
