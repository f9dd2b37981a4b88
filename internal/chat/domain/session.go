// Package domain holds the conversational state exchanged with Cleverbot
// and the pure protocol logic around it: canonical form encoding, the
// icognocheck token and the positional reply table.
package domain

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Well-known form fields.
const (
	FieldStart       = "start"
	FieldIcognoID    = "icognoid"
	FieldTurnCounter = "fno"
	FieldSubmit      = "sub"
	FieldIsLearning  = "islearning"
	FieldCleanSlate  = "cleanslate"
	FieldStimulus    = "stimulus"
	FieldToken       = "icognocheck"
	FieldSessionID   = "sessionid"
	FieldReplyText   = "ttsText"
)

// Field is a single name/value pair of the session state.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the insertion-ordered form state Cleverbot expects echoed back
// on every turn. Key order is part of the protocol: the token is derived
// from a fixed byte window of the encoded form.
//
// A Session is not safe for concurrent use.
type Session struct {
	keys   []string
	values map[string]string
}

// defaultFields is the baseline template. It is never handed out directly.
var defaultFields = []Field{
	{Name: FieldStart, Value: "y"},
	{Name: FieldIcognoID, Value: "wsf"},
	{Name: FieldTurnCounter, Value: "0"},
	{Name: FieldSubmit, Value: "Say"},
	{Name: FieldIsLearning, Value: "1"},
	{Name: FieldCleanSlate, Value: "false"},
}

// DefaultSession returns a fresh copy of the baseline state.
func DefaultSession() *Session {
	return NewSession(defaultFields...)
}

// NewSession builds a session from an ordered list of fields, e.g. a state
// exported from a previous conversation.
func NewSession(fields ...Field) *Session {
	s := &Session{values: make(map[string]string, len(fields))}
	s.Merge(fields)
	return s
}

// Get returns the value stored under field.
func (s *Session) Get(field string) (string, bool) {
	v, ok := s.values[field]
	return v, ok
}

// Set stores value under field. An existing field keeps its position.
func (s *Session) Set(field, value string) {
	if _, ok := s.values[field]; !ok {
		s.keys = append(s.keys, field)
	}
	s.values[field] = value
}

// SetInt stores n in decimal form.
func (s *Session) SetInt(field string, n int) {
	s.Set(field, strconv.Itoa(n))
}

// Merge sets every field in order.
func (s *Session) Merge(fields []Field) {
	for _, f := range fields {
		s.Set(f.Name, f.Value)
	}
}

// Keys returns the field names in insertion order.
func (s *Session) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of fields.
func (s *Session) Len() int {
	return len(s.keys)
}

// Fields returns an ordered snapshot of the state.
func (s *Session) Fields() []Field {
	out := make([]Field, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Field{Name: k, Value: s.values[k]})
	}
	return out
}

// Clone returns an independent copy.
func (s *Session) Clone() *Session {
	return NewSession(s.Fields()...)
}

// Encode renders the state as application/x-www-form-urlencoded in
// insertion order. Both the token and the POST body are built from it, so
// the two can never disagree on byte layout.
func (s *Session) Encode() string {
	var b strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s.values[k]))
	}
	return b.String()
}

// MarshalJSON encodes the state as an ordered array of fields.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// UnmarshalJSON replaces the state with an ordered array of fields.
func (s *Session) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = *NewSession(fields...)
	return nil
}
