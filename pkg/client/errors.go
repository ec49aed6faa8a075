package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer. Message and Code come from the server's
// {"error":{...}} body when it has one.
type APIError struct {
	Status    int
	Message   string
	Code      string
	RequestID string
	Details   json.RawMessage
	Body      []byte
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// ValidationDetails decodes the details of a 400 validation failure.
func (e *APIError) ValidationDetails() (ValidationDetails, bool) {
	var d ValidationDetails
	if len(e.Details) == 0 {
		return d, false
	}
	if err := json.Unmarshal(e.Details, &d); err != nil {
		return d, false
	}
	return d, true
}

type ValidationDetails struct {
	Fields []FieldError `json:"fields"`
	Form   []string     `json:"form"`
	JSON   string       `json:"json"`
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param"`
	Message string `json:"message"`
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	e := &APIError{Status: resp.StatusCode, Body: body}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		e.Message = strings.TrimSpace(string(body))
		return e
	}

	var env struct {
		Error struct {
			Message   string          `json:"message"`
			Code      string          `json:"code"`
			RequestID string          `json:"requestId"`
			Details   json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Error.Message
		e.Code = env.Error.Code
		e.RequestID = env.Error.RequestID
		e.Details = env.Error.Details
	}
	return e
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
