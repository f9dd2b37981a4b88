package domain_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
)

func TestDefaultSession_Baseline(t *testing.T) {
	s := domain.DefaultSession()

	want := []string{"start", "icognoid", "fno", "sub", "islearning", "cleanslate"}
	if got := s.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}
	if v, _ := s.Get(domain.FieldTurnCounter); v != "0" {
		t.Errorf("expected fno '0', got '%s'", v)
	}
}

func TestDefaultSession_IndependentCopies(t *testing.T) {
	a := domain.DefaultSession()
	b := domain.DefaultSession()

	a.Set(domain.FieldStimulus, "only in a")
	a.Set(domain.FieldStart, "n")

	if _, ok := b.Get(domain.FieldStimulus); ok {
		t.Error("mutation of one default session leaked into another")
	}
	if v, _ := b.Get(domain.FieldStart); v != "y" {
		t.Errorf("expected untouched start 'y', got '%s'", v)
	}
}

func TestSession_SetKeepsPosition(t *testing.T) {
	s := domain.NewSession(
		domain.Field{Name: "a", Value: "1"},
		domain.Field{Name: "b", Value: "2"},
	)
	s.Set("a", "3")
	s.SetInt("c", 7)

	if got := s.Encode(); got != "a=3&b=2&c=7" {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestSession_AcceptsUnknownFields(t *testing.T) {
	s := domain.DefaultSession()
	s.Merge([]domain.Field{{Name: "brandNewField", Value: "x"}})

	if v, ok := s.Get("brandNewField"); !ok || v != "x" {
		t.Errorf("expected unknown field to be carried, got %q %v", v, ok)
	}
	if s.Len() != 7 {
		t.Errorf("expected 7 fields, got %d", s.Len())
	}
}

func TestSession_EncodeMatchesFormEncoding(t *testing.T) {
	s := domain.DefaultSession()
	s.Set(domain.FieldStimulus, "Hello there & bye?")

	want := "start=y&icognoid=wsf&fno=0&sub=Say&islearning=1&cleanslate=false&stimulus=Hello+there+%26+bye%3F"
	if got := s.Encode(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	s.Set(domain.FieldStimulus, "héllo ~.-_*")
	want = "start=y&icognoid=wsf&fno=0&sub=Say&islearning=1&cleanslate=false&stimulus=h%C3%A9llo+~.-_%2A"
	if got := s.Encode(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := domain.DefaultSession()
	c := s.Clone()
	c.Set(domain.FieldSessionID, "abc")

	if _, ok := s.Get(domain.FieldSessionID); ok {
		t.Error("clone mutation leaked into source")
	}
}

func TestSession_JSONPreservesOrder(t *testing.T) {
	s := domain.NewSession(
		domain.Field{Name: "z", Value: "1"},
		domain.Field{Name: "a", Value: "2"},
		domain.Field{Name: "m", Value: "3"},
	)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back domain.Session
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Encode() != s.Encode() {
		t.Errorf("expected %q after round trip, got %q", s.Encode(), back.Encode())
	}
}
