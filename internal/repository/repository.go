// Package repository holds the entity repositories: narrow request/response
// contracts over the remote API's fixed path templates. Repositories never
// retry and never change local state before the server confirms.
package repository

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository")

// seg escapes a caller-supplied path segment.
func seg(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}

// decodeRecords reads a JSON array of objects. An empty body is an empty list.
func decodeRecords(resp *gateway.Response) ([]domain.Record, error) {
	if len(resp.Body) == 0 {
		return []domain.Record{}, nil
	}
	var out []domain.Record
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Record{}
	}
	return out, nil
}

// decodeRecord reads a JSON object. Some endpoints answer with a bare
// string ("Account ... deleted"); that becomes {"message": ...}.
func decodeRecord(resp *gateway.Response) (domain.Record, error) {
	if len(resp.Body) == 0 {
		return domain.Record{}, nil
	}
	var rec domain.Record
	if err := json.Unmarshal(resp.Body, &rec); err == nil {
		if rec == nil {
			rec = domain.Record{}
		}
		return rec, nil
	}
	var msg string
	if err := json.Unmarshal(resp.Body, &msg); err == nil {
		return domain.Record{"message": msg}, nil
	}
	return domain.Record{"message": string(resp.Body)}, nil
}

func decodeInto[T any](resp *gateway.Response) (*T, error) {
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return &v, nil
}
