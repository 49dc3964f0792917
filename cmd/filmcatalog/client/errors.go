package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrNotFound = errors.New("not found")

// TransportError is a failed exchange with the catalog service: either the
// request never completed (Err set) or the service answered with a non-2xx
// status.
type TransportError struct {
	Status int
	// Message is the service's own explanation, when it sent one
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("server returned error status %d: %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func statusError(status int, body []byte) *TransportError {
	te := &TransportError{Status: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		te.Message = eb.Message
		if te.Message == "" {
			te.Message = eb.Error
		}
	}
	if status == http.StatusNotFound {
		te.Err = ErrNotFound
	}
	return te
}
