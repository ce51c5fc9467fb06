package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hackgods/hospital-records/internal/records"
)

// FetchError is a failed list call: transport, status or decode.
type FetchError struct {
	Collection records.Collection
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError is a failed create call, including server-side rejection.
type WriteError struct {
	Collection records.Collection
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("create %s: %v", e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// StatusError is an unexpected HTTP status. Message carries the server's
// explanation when the body is the API's error shape.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("records api returned status %d", e.Code)
	}
	return fmt.Sprintf("records api returned status %d: %s", e.Code, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return se
	}
	var body errorBody
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		se.Message = body.Error
		if body.Details != "" {
			se.Message = body.Details
		}
		return se
	}
	se.Message = strings.TrimSpace(string(data))
	return se
}
