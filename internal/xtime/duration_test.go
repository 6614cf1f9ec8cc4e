package xtime

import (
	"testing"
	"time"
)

func TestDurationRoundTripsThroughText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("5m30s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Std() != 5*time.Minute+30*time.Second {
		t.Fatalf("got %s", d.Std())
	}
	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "5m30s" {
		t.Fatalf("got %q", text)
	}
}

func TestDurationUnmarshalTextRejectsGarbage(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Fatal("expected an error")
	}
}
