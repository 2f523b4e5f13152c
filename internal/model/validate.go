package model

import "unicode/utf8"

// Messages shown to the user when a form is submitted incomplete.
const (
	MsgFillAllFields  = "Please fill in all fields."
	MsgPasswordLength = "Password must be at least 6 characters."
)

// MinPasswordLength is the shortest password the signup form accepts.
const MinPasswordLength = 6

// ValidationError is a client-side rejection detected before any network
// call. Message is the single user-facing text; Fields lists the offending
// inputs for logging.
type ValidationError struct {
	Message string
	Fields  []string
}

// Error returns the user-facing message.
func (e *ValidationError) Error() string {
	return e.Message
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ValidateDraft requires every lead field to be non-empty. A value of only
// spaces counts as present. All missing fields are reported under one message.
func ValidateDraft(l Lead) error {
	var ve ValidationError
	for _, f := range Fields() {
		v, _ := l.Get(f)
		if v == "" {
			ve.Fields = append(ve.Fields, string(f))
		}
	}
	if ve.HasErrors() {
		ve.Message = MsgFillAllFields
		return &ve
	}
	return nil
}

// ValidateLogin requires both credentials.
func ValidateLogin(c Credentials) error {
	ve := requireFields(map[string]string{"email": c.Email, "password": c.Password}, "email", "password")
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ValidateSignup requires every field and a minimum password length.
func ValidateSignup(r SignupRequest) error {
	ve := requireFields(map[string]string{"name": r.Name, "email": r.Email, "password": r.Password}, "name", "email", "password")
	if ve.HasErrors() {
		return ve
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return &ValidationError{Message: MsgPasswordLength, Fields: []string{"password"}}
	}
	return nil
}

func requireFields(values map[string]string, order ...string) *ValidationError {
	ve := &ValidationError{Message: MsgFillAllFields}
	for _, k := range order {
		if values[k] == "" {
			ve.Fields = append(ve.Fields, k)
		}
	}
	return ve
}
