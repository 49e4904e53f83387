package zn

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// errorEnvelope is the error shape the API embeds in otherwise 200-shaped
// bodies: {"statusCode": 404, "error": "Not Found", "message": "..."}.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Classify inspects a raw response body and converts it to success or
// failure. Empty bodies and bodies that are not JSON are ambiguous server
// behavior and classify as ErrEmptyResponse and ErrMalformedResponse
// respectively. A JSON object carrying statusCode > 299 classifies as an
// *APIError; anything else is success and the parsed body is returned.
func Classify(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyResponse
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: %.120q", ErrMalformedResponse, string(trimmed))
	}
	if trimmed[0] == '{' {
		var envelope errorEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.StatusCode > 299 {
			msg := envelope.Message
			if msg == "" {
				msg = envelope.Error
			}
			return nil, &APIError{Code: envelope.StatusCode, Message: msg}
		}
	}
	return json.RawMessage(trimmed), nil
}

// ListPage is one page of a list endpoint. List endpoints answer with a
// two-element structure: element 0 is the array of items, element 1 carries
// a count field with the collection total. Some endpoints return a bare
// array instead, in which case HasCount is false.
type ListPage struct {
	Items    []json.RawMessage
	Count    int
	HasCount bool
}

// ParseListPage decodes a classified list response into a ListPage.
func ParseListPage(raw json.RawMessage) (*ListPage, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: list endpoint did not return an array", ErrMalformedResponse)
	}
	page := &ListPage{}
	if len(elements) == 2 && len(elements[0]) > 0 && elements[0][0] == '[' {
		var meta struct {
			Count *int `json:"count"`
		}
		if err := json.Unmarshal(elements[1], &meta); err == nil && meta.Count != nil {
			if err := json.Unmarshal(elements[0], &page.Items); err != nil {
				return nil, fmt.Errorf("%w: bad item array in list envelope", ErrMalformedResponse)
			}
			page.Count = *meta.Count
			page.HasCount = true
			return page, nil
		}
	}
	page.Items = elements
	return page, nil
}
