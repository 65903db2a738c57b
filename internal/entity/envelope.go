package entity

import "strings"

type Header struct {
	Key   string
	Value string
}

// Request is a transport-neutral HTTP-style request.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers []Header
}

type Response struct {
	StatusCode uint16
	Headers    []Header
	Body       []byte
}

// HeaderValues returns every value for key in order. Keys compare case-insensitively.
func HeaderValues(headers []Header, key string) []string {
	var values []string
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			values = append(values, h.Value)
		}
	}
	return values
}

// HeaderValue returns the first value for key.
func HeaderValue(headers []Header, key string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}
