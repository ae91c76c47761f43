package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
)

const (
	msgNetworkUnreachable = "Unable to connect to the server. Please check your connection."
	msgUnexpected         = "An unexpected error occurred"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request - Please check your input",
	http.StatusUnauthorized:        "Unauthorized - Please login again",
	http.StatusForbidden:           "Forbidden - You do not have permission",
	http.StatusNotFound:            "Not Found - The requested resource was not found",
	http.StatusInternalServerError: "Internal Server Error - Please try again later",
}

// classifyStatus turns a rejected response into an APIError. The body's
// "message" or "error" field wins over the fixed per-status text.
func classifyStatus(method, path string, status int, body []byte) *domain.APIError {
	msg := messageFromBody(body)
	if msg == "" {
		var ok bool
		if msg, ok = statusMessages[status]; !ok {
			msg = fmt.Sprintf("Error %d - %s", status, http.StatusText(status))
		}
	}

	return &domain.APIError{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: msg,
		Method:  method,
		Path:    path,
	}
}

func kindForStatus(status int) domain.ErrorKind {
	switch {
	case status >= 400 && status < 500:
		return domain.KindClientRejected
	case status >= 500 && status < 600:
		return domain.KindServerFault
	default:
		return domain.KindUnclassified
	}
}

func messageFromBody(body []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if s, ok := payload.Message.(string); ok && s != "" {
		return s
	}
	if s, ok := payload.Error.(string); ok && s != "" {
		return s
	}
	return ""
}

func unreachable(method, path string, err error) *domain.APIError {
	return &domain.APIError{
		Kind:    domain.KindNetworkUnreachable,
		Message: msgNetworkUnreachable,
		Method:  method,
		Path:    path,
		Err:     err,
	}
}

func unexpected(method, path string, err error) *domain.APIError {
	return &domain.APIError{
		Kind:    domain.KindUnclassified,
		Message: msgUnexpected,
		Method:  method,
		Path:    path,
		Err:     err,
	}
}
