// Package relay implements a connection-pooled fan-out client for the relay
// publish/query protocol. Every endpoint is independently operated and may
// be unreachable or slow at any time; the client aggregates whatever answers
// within a bounded window and only reports failure when nothing does.
package relay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Event kinds understood by this application.
const (
	KindLongForm = 30023 // long-form text notes
	KindVideo    = 34235 // horizontal video events
	KindAppData  = 30078 // application-specific replaceable records
)

// Timestamp is a unix-seconds timestamp as carried on the wire.
type Timestamp int64

// Time converts the wire timestamp into a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// Now returns the current time as a wire timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

// Tag is one event tag: a name followed by positional values.
type Tag []string

// Name returns the tag name, "" for malformed empty tags.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the first positional value, "" when absent.
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Event is one signed protocol event.
type Event struct {
	ID        string    `json:"id"`
	PubKey    string    `json:"pubkey"`
	CreatedAt Timestamp `json:"created_at"`
	Kind      int       `json:"kind"`
	Tags      []Tag     `json:"tags"`
	Content   string    `json:"content"`
	Sig       string    `json:"sig"`
}

// TagValue returns the first value of the first tag with the given name.
func (e *Event) TagValue(name string) string {
	for _, tag := range e.Tags {
		if tag.Name() == name {
			return tag.Value()
		}
	}
	return ""
}

// ComputeID returns the canonical event id: the hex sha256 of the
// serialization array [0, pubkey, created_at, kind, tags, content].
func (e *Event) ComputeID() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode([]any{0, e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content})

	// Encode appends a newline that is not part of the serialization
	sum := sha256.Sum256(bytes.TrimRight(buf.Bytes(), "\n"))
	return hex.EncodeToString(sum[:])
}

// Signer produces signatures for outgoing events. Key material lives with
// the embedding application; this module never generates or stores keys.
type Signer interface {
	// PublicKey returns the hex public key signatures verify against.
	PublicKey() string
	// Sign fills in the event's ID and Sig for the signer's key.
	Sign(ctx context.Context, ev *Event) error
}
