package version

import "testing"

func TestStringPrefersLinkedVersion(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
	prev := Version
	t.Cleanup(func() { Version = prev })
	Version = "v0.3.1"
	if s := String(); s != "v0.3.1" {
		t.Fatalf("String() = %q, want linked version", s)
	}
}
