// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is a single unit of queued work wrapping an opaque payload.
//
// An Entry is immutable once created. Two entries are equal if their
// payloads are equal.
type Entry struct {
	payload []byte
}

// NewEntry returns a new Entry holding a copy of payload.
func NewEntry(payload []byte) *Entry {
	return &Entry{payload: bytes.Clone(payload)}
}

// Payload returns the entry payload. The returned slice must not be modified.
func (e *Entry) Payload() []byte {
	if e == nil {
		return nil
	}
	return e.payload
}

// Decode unmarshals a JSON encoded payload into v.
func (e *Entry) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload(), v)
}

// Equal reports whether e and other hold the same payload.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return bytes.Equal(e.payload, other.payload)
}

func (e *Entry) String() string {
	return string(e.Payload())
}

// Wrap wraps a raw item into an Entry.
//
// Entries are returned as is. Byte slices and strings become the payload
// verbatim. Any other value is encoded as JSON.
func Wrap(item interface{}) (*Entry, error) {
	switch v := item.(type) {
	case *Entry:
		if v == nil {
			return nil, fmt.Errorf("cronqueue: cannot wrap a nil entry")
		}
		return v, nil
	case Entry:
		return &v, nil
	case []byte:
		return NewEntry(v), nil
	case json.RawMessage:
		return NewEntry(v), nil
	case string:
		return &Entry{payload: []byte(v)}, nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("cronqueue: cannot wrap item of type %T: %v", item, err)
	}
	return &Entry{payload: data}, nil
}

// WrapAll wraps every item with Wrap, preserving order.
func WrapAll(items []interface{}) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(items))
	for i, item := range items {
		e, err := Wrap(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
