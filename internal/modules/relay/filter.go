package relay

import (
	"encoding/json"
	"slices"
)

// TagFilters maps a tag name to accepted values, serialized as "#<name>".
type TagFilters map[string][]string

// Filter selects events on a relay. Zero-valued fields are omitted from the
// wire encoding and match everything.
type Filter struct {
	IDs     []string   `json:"ids,omitempty"`
	Authors []string   `json:"authors,omitempty"`
	Kinds   []int      `json:"kinds,omitempty"`
	Tags    TagFilters `json:"-"`
	Since   *Timestamp `json:"since,omitempty"`
	Until   *Timestamp `json:"until,omitempty"`
	Limit   int        `json:"limit,omitempty"`
}

// MarshalJSON flattens Tags into "#name" keys next to the regular fields.
func (f Filter) MarshalJSON() ([]byte, error) {
	type plain Filter
	raw, err := json.Marshal(plain(f))
	if err != nil {
		return nil, err
	}

	if len(f.Tags) == 0 {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	for name, values := range f.Tags {
		encoded, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		obj["#"+name] = encoded
	}
	return json.Marshal(obj)
}

// Matches reports whether an event satisfies the filter. Limit is a result
// count bound, not a per-event predicate, so it is ignored here.
func (f Filter) Matches(ev *Event) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, ev.ID) {
		return false
	}
	if len(f.Authors) > 0 && !slices.Contains(f.Authors, ev.PubKey) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, ev.Kind) {
		return false
	}
	if f.Since != nil && ev.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && ev.CreatedAt > *f.Until {
		return false
	}
	for name, values := range f.Tags {
		matched := false
		for _, tag := range ev.Tags {
			if tag.Name() == name && slices.Contains(values, tag.Value()) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
