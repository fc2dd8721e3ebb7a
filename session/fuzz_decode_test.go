package session

import (
	"errors"
	"testing"
)

// FuzzJSONDecode feeds arbitrary bytes to the record decoder.
// Anything it accepts must be a complete record that re-encodes cleanly.
func FuzzJSONDecode(f *testing.F) {
	valid, err := JSONCodec{}.Encode(testRecord())
	if err == nil {
		f.Add(valid)
	}
	f.Add([]byte{})
	f.Add([]byte("null"))
	f.Add([]byte(`{"id":"1"}`))
	f.Add([]byte(`{"id":"1","name":"N","email":"e","role":"R","institution":"I","x":1}`))
	if len(valid) > 10 {
		f.Add(valid[:10])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := JSONCodec{}.Decode(data)
		if err != nil {
			if !errors.Is(err, ErrRecordMalformed) {
				t.Fatalf("decode error does not wrap ErrRecordMalformed: %v", err)
			}
			return
		}
		if rec == nil {
			t.Fatal("Decode returned nil record without error")
		}
		if err := rec.Validate(); err != nil {
			t.Fatalf("accepted record fails validation: %v", err)
		}
		if _, err := (JSONCodec{}).Encode(rec); err != nil {
			t.Fatalf("accepted record does not re-encode: %v", err)
		}
	})
}
