// Package idgen generates request correlation ids and document-style record
// ids backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// RequestPrefix marks ids sent in the X-Request-Id header.
	RequestPrefix = "req-"

	requestAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	requestLength   = 16

	// Record ids have the shape of a 12-byte document id rendered as hex.
	recordAlphabet = "0123456789abcdef"
	recordLength   = 24
)

// RequestID returns a new correlation id for an outgoing API call.
func RequestID() (string, error) {
	id, err := nanoid.Generate(requestAlphabet, requestLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return RequestPrefix + id, nil
}

// RecordID returns a new 24-character lowercase hex id.
func RecordID() (string, error) {
	id, err := nanoid.Generate(recordAlphabet, recordLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}
