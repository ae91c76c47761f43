package notify

import (
	"context"
	"errors"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/port"
)

const msgUnexpected = "An unexpected error occurred"

// Gateway announces every error returned by the wrapped requester and then
// returns it unchanged. Statuses a call declares with gateway.Expect are not
// errors and are never announced.
type Gateway struct {
	next     port.Requester
	notifier Notifier
}

// WrapGateway decorates next so its failures reach notifier.
func WrapGateway(next port.Requester, notifier Notifier) *Gateway {
	return &Gateway{next: next, notifier: notifier}
}

func (g *Gateway) Do(ctx context.Context, method, path string, body any, opts ...gateway.CallOption) (*gateway.Response, error) {
	resp, err := g.next.Do(ctx, method, path, body, opts...)
	if err != nil {
		g.notifier.Notify(ctx, ErrorNotification(err))
	}
	return resp, err
}

// ErrorNotification renders err the way the gateway announces it.
func ErrorNotification(err error) Notification {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return Error(apiErr.Title(), apiErr.Message)
	}
	return Error("Error", msgUnexpected)
}
