package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MrEthical07/aura/jwt"
)

// Codec converts records to and from their stored bytes. Decode must return an
// error wrapping ErrRecordMalformed for anything that is not a complete record.
type Codec interface {
	Name() string
	Encode(r *Record) ([]byte, error)
	Decode(data []byte) (*Record, error)
}

var recordFields = [...]string{"id", "name", "email", "role", "institution"}

// JSONCodec stores the record as a flat JSON object.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// Encode marshals r after validating it.
func (JSONCodec) Encode(r *Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// Decode accepts exactly the five record fields, each a JSON string, in any order.
func (JSONCodec) Decode(data []byte) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrRecordMalformed)
	}
	if err := rejectDuplicateKeys(data); err != nil {
		return nil, err
	}
	if len(raw) != len(recordFields) {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrRecordMalformed, len(recordFields), len(raw))
	}

	values := make(map[string]string, len(recordFields))
	for _, name := range recordFields {
		v, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrRecordMalformed, name)
		}
		// null decodes into a string without error.
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: field %q is null", ErrRecordMalformed, name)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("%w: field %q is not a string", ErrRecordMalformed, name)
		}
		values[name] = s
	}

	r := &Record{
		ID:          values["id"],
		Name:        values["name"],
		Email:       values["email"],
		Role:        values["role"],
		Institution: values["institution"],
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// rejectDuplicateKeys walks the top-level members of a JSON object that is
// already known to decode. A repeated key is an extra member.
func rejectDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	seen := make(map[string]struct{}, len(recordFields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRecordMalformed, err)
		}
		key, _ := tok.(string)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrRecordMalformed, key)
		}
		seen[key] = struct{}{}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return fmt.Errorf("%w: %v", ErrRecordMalformed, err)
		}
	}
	return nil
}

// SignedCodec stores the record as a signed JWT.
type SignedCodec struct {
	manager *jwt.Manager
}

// NewSignedCodec wraps m.
func NewSignedCodec(m *jwt.Manager) *SignedCodec {
	return &SignedCodec{manager: m}
}

// Name returns "jwt".
func (c *SignedCodec) Name() string { return "jwt" }

// Encode signs r.
func (c *SignedCodec) Encode(r *Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	token, err := c.manager.Sign(jwt.RecordClaims{
		UID:         r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Role:        r.Role,
		Institution: r.Institution,
	})
	if err != nil {
		return nil, err
	}
	return []byte(token), nil
}

// Decode verifies the token and returns its record. Verification failures and
// incomplete claims are both reported as ErrRecordMalformed.
func (c *SignedCodec) Decode(data []byte) (*Record, error) {
	claims, err := c.manager.Parse(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	r := &Record{
		ID:          claims.UID,
		Name:        claims.Name,
		Email:       claims.Email,
		Role:        claims.Role,
		Institution: claims.Institution,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
