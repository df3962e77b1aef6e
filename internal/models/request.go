package models

import "net/http"

// RequestMetadata is the identity of an outgoing request
type RequestMetadata struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header
}

// NewRequestMetadata captures an outgoing request. Body must be passed separately
// since reading it would consume the request.
func NewRequestMetadata(req *http.Request, body []byte) RequestMetadata {
	return RequestMetadata{
		Method: req.Method,
		URL:    req.URL.String(),
		Body:   body,
		Header: req.Header.Clone(),
	}
}
