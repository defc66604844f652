package relay

import (
	"encoding/json"

	"github.com/samber/oops"
)

// Wire labels for protocol envelopes.
const (
	labelEvent  = "EVENT"
	labelReq    = "REQ"
	labelClose  = "CLOSE"
	labelEOSE   = "EOSE"
	labelOK     = "OK"
	labelNotice = "NOTICE"
	labelClosed = "CLOSED"
)

// incoming is one decoded relay-to-client envelope. Exactly the fields for
// the envelope's label are populated.
type incoming struct {
	Label   string
	SubID   string
	Event   *Event
	EventID string
	OK      bool
	Message string
}

func encodeReq(subID string, filter Filter) ([]byte, error) {
	return json.Marshal([]any{labelReq, subID, filter})
}

func encodeClose(subID string) ([]byte, error) {
	return json.Marshal([]any{labelClose, subID})
}

func encodeEvent(ev *Event) ([]byte, error) {
	return json.Marshal([]any{labelEvent, ev})
}

// decodeMessage parses one relay-to-client frame. Unknown labels come back
// with only Label set so callers can ignore them without failing the read
// loop.
func decodeMessage(data []byte) (*incoming, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, oops.With("context", "malformed relay frame").Wrap(err)
	}
	if len(arr) == 0 {
		return nil, oops.Errorf("empty relay frame")
	}

	var label string
	if err := json.Unmarshal(arr[0], &label); err != nil {
		return nil, oops.With("context", "malformed relay frame label").Wrap(err)
	}

	msg := &incoming{Label: label}
	switch label {
	case labelEvent:
		if len(arr) < 3 {
			return nil, oops.Errorf("EVENT frame too short")
		}
		if err := json.Unmarshal(arr[1], &msg.SubID); err != nil {
			return nil, err
		}
		msg.Event = &Event{}
		if err := json.Unmarshal(arr[2], msg.Event); err != nil {
			return nil, oops.With("context", "malformed event payload").Wrap(err)
		}
	case labelEOSE:
		if len(arr) < 2 {
			return nil, oops.Errorf("EOSE frame too short")
		}
		if err := json.Unmarshal(arr[1], &msg.SubID); err != nil {
			return nil, err
		}
	case labelOK:
		if len(arr) < 3 {
			return nil, oops.Errorf("OK frame too short")
		}
		if err := json.Unmarshal(arr[1], &msg.EventID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(arr[2], &msg.OK); err != nil {
			return nil, err
		}
		if len(arr) > 3 {
			_ = json.Unmarshal(arr[3], &msg.Message)
		}
	case labelClosed:
		if len(arr) < 2 {
			return nil, oops.Errorf("CLOSED frame too short")
		}
		if err := json.Unmarshal(arr[1], &msg.SubID); err != nil {
			return nil, err
		}
		if len(arr) > 2 {
			_ = json.Unmarshal(arr[2], &msg.Message)
		}
	case labelNotice:
		if len(arr) > 1 {
			_ = json.Unmarshal(arr[1], &msg.Message)
		}
	}

	return msg, nil
}
