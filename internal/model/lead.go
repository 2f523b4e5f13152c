// Package model defines the lead records, filters and auth payloads shared by
// the console components and the remote API client.
package model

import (
	"encoding/json"
	"fmt"
)

// Status represents where a lead sits in the sales workflow.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusLost      Status = "lost"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is one of the selectable values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusLost:
		return true
	}
	return false
}

// Statuses returns the selectable statuses in display order.
func Statuses() []Status {
	return []Status{StatusNew, StatusContacted, StatusQualified, StatusLost}
}

// Field names an editable lead attribute.
type Field string

const (
	FieldName      Field = "name"
	FieldEmail     Field = "email"
	FieldStatus    Field = "status"
	FieldAIMessage Field = "aiMessage"
)

// Fields returns the editable fields in form order.
func Fields() []Field {
	return []Field{FieldName, FieldEmail, FieldStatus, FieldAIMessage}
}

// Lead is a prospective-customer record. ID is assigned by the remote API
// and is empty until the lead has been persisted.
type Lead struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Status    Status `json:"status"`
	AIMessage string `json:"aiMessage"`
}

// UnmarshalJSON accepts the identifier as either "_id" or "id".
func (l *Lead) UnmarshalJSON(data []byte) error {
	type plain Lead
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Lead(raw.plain)
	if l.ID == "" {
		l.ID = raw.AltID
	}
	return nil
}

// Get returns the value of the named field.
func (l Lead) Get(f Field) (string, error) {
	switch f {
	case FieldName:
		return l.Name, nil
	case FieldEmail:
		return l.Email, nil
	case FieldStatus:
		return string(l.Status), nil
	case FieldAIMessage:
		return l.AIMessage, nil
	}
	return "", fmt.Errorf("unknown lead field %q", f)
}

// Set assigns value to the named field.
func (l *Lead) Set(f Field, value string) error {
	switch f {
	case FieldName:
		l.Name = value
	case FieldEmail:
		l.Email = value
	case FieldStatus:
		l.Status = Status(value)
	case FieldAIMessage:
		l.AIMessage = value
	default:
		return fmt.Errorf("unknown lead field %q", f)
	}
	return nil
}
