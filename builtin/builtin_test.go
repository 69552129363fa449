package builtin

import "testing"

func TestAddressCaseInsensitive(t *testing.T) {
	table := New(map[string]uint32{"Hlp_Random": 40})

	addr, ok := table.Address("hlp_random")
	if !ok || addr != 40 {
		t.Fatalf("Address(lowercase) = %d, %v, want 40, true", addr, ok)
	}
	addr, ok = table.Address("HLP_RANDOM")
	if !ok || addr != 40 {
		t.Fatalf("Address(uppercase) = %d, %v, want 40, true", addr, ok)
	}
}

func TestAddressUnknown(t *testing.T) {
	table := New(nil)
	if _, ok := table.Address("NOPE"); ok {
		t.Error("expected an unregistered name to be unknown")
	}
}

func TestNameReverseLookup(t *testing.T) {
	table := New(map[string]uint32{"AI_OUTPUT": 10})
	name, ok := table.Name(10)
	if !ok || name != "AI_OUTPUT" {
		t.Fatalf("Name(10) = %q, %v, want \"AI_OUTPUT\", true", name, ok)
	}
	if _, ok := table.Name(999); ok {
		t.Error("expected an unused address to be unknown")
	}
}

func TestDefaultResolvesWellKnownExterns(t *testing.T) {
	table := Default()
	for _, name := range []string{"AI_OUTPUT", "NPC_ISPLAYER", "WLD_ISTIME", "HLP_RANDOM"} {
		if _, ok := table.Address(name); !ok {
			t.Errorf("Default() table is missing well-known extern %q", name)
		}
	}
}
