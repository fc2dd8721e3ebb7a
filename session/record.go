package session

import "errors"

// ErrRecordNotFound is returned by Store.Load when the slot is empty.
var ErrRecordNotFound = errors.New("session record not found")

// ErrRecordMalformed is returned when the slot holds bytes that do not decode to a
// complete record.
var ErrRecordMalformed = errors.New("session record malformed")

// ErrStorageUnavailable wraps backend failures while reading or writing the slot.
var ErrStorageUnavailable = errors.New("session storage unavailable")

// Record is the persisted identity. Every field is required.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Institution string `json:"institution"`
}

// Validate reports ErrRecordMalformed unless every field is non-empty.
func (r *Record) Validate() error {
	if r == nil {
		return ErrRecordMalformed
	}
	if r.ID == "" || r.Name == "" || r.Email == "" || r.Role == "" || r.Institution == "" {
		return ErrRecordMalformed
	}
	return nil
}
