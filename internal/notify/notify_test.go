package notify_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/notify"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRequester struct {
	resp  *gateway.Response
	err   error
	calls int
}

func (s *stubRequester) Do(_ context.Context, _, _ string, _ any, _ ...gateway.CallOption) (*gateway.Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestGateway_AnnouncesAPIError(t *testing.T) {
	apiErr := &domain.APIError{Kind: domain.KindClientRejected, Status: 400, Message: "Insufficient balance"}
	inner := &stubRequester{err: apiErr}
	feed := notify.NewFeed(10)

	_, err := notify.WrapGateway(inner, feed).Do(context.Background(), http.MethodPost, "/transaction/create", nil)
	assert.Same(t, apiErr, err, "error must pass through unchanged")

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "Error", got[0].Title)
	assert.Equal(t, "Insufficient balance", got[0].Message)
}

func TestGateway_NetworkErrorTitle(t *testing.T) {
	inner := &stubRequester{err: &domain.APIError{
		Kind:    domain.KindNetworkUnreachable,
		Message: "Unable to connect to the server. Please check your connection.",
	}}
	feed := notify.NewFeed(10)

	_, _ = notify.WrapGateway(inner, feed).Do(context.Background(), http.MethodGet, "/account/getAll", nil)

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Network Error", got[0].Title)
}

func TestGateway_UnknownErrorIsGeneric(t *testing.T) {
	n := notify.ErrorNotification(errors.New("boom"))
	assert.Equal(t, "Error", n.Title)
	assert.Equal(t, "An unexpected error occurred", n.Message)
}

func TestGateway_SuccessIsSilent(t *testing.T) {
	inner := &stubRequester{resp: &gateway.Response{StatusCode: http.StatusNotFound}}
	feed := notify.NewFeed(10)

	resp, err := notify.WrapGateway(inner, feed).Do(context.Background(), http.MethodGet, "/customer/user/1", nil, gateway.Expect(404))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, feed.Len())
}

func TestFeed_DropsOldest(t *testing.T) {
	feed := notify.NewFeed(2)
	ctx := context.Background()
	feed.Notify(ctx, notify.Success("a", "1"))
	feed.Notify(ctx, notify.Success("b", "2"))
	feed.Notify(ctx, notify.Success("c", "3"))

	got := feed.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
	assert.Empty(t, feed.Drain())
}

func TestTerminalAndMulti(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	feed := notify.NewFeed(5)
	m := notify.Multi{notify.NewTerminal(&buf), feed, notify.Discard}

	m.Notify(context.Background(), notify.Success("Success", "Transaction of ₹500.00 has been processed"))

	assert.Equal(t, "Success: Transaction of ₹500.00 has been processed\n", buf.String())
	assert.Equal(t, 1, feed.Len())
}
