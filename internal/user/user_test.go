package user

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry_AddAndList(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"carol", "alice", "bob"} {
		if _, err := r.Add(name); err != nil {
			t.Fatalf("Add(%q) error = %v", name, err)
		}
	}

	users := r.List()
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	if !slices.Equal(names, []string{"carol", "alice", "bob"}) {
		t.Errorf("List() order = %v, want insertion order", names)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestRegistry_AddErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Add("alice"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"duplicate", "alice", ErrUserExists},
		{"empty", "", ErrInvalidUsername},
		{"blank", "   ", ErrInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Add(tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Add(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}

	if _, err := r.Add("Alice"); err != nil {
		t.Errorf("usernames are case-sensitive, Add(Alice) error = %v", err)
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("alice")
	_, _ = r.Add("bob")
	_ = r.LinkDevice("alice", "light-1")

	removed, err := r.Remove("alice")
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !slices.Equal(removed.Devices, []string{"light-1"}) {
		t.Errorf("removed user devices = %v", removed.Devices)
	}
	if r.Exists("alice") {
		t.Error("alice still exists after Remove")
	}
	if _, err := r.Remove("alice"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second Remove() error = %v, want ErrUserNotFound", err)
	}
	if got := r.List(); len(got) != 1 || got[0].Username != "bob" {
		t.Errorf("List() after remove = %v", got)
	}
}

func TestRegistry_LinkAndUnlink(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("alice")
	_, _ = r.Add("bob")

	if err := r.LinkDevice("alice", "light-1"); err != nil {
		t.Fatalf("LinkDevice() error = %v", err)
	}
	if err := r.LinkDevice("alice", "ac-1"); err != nil {
		t.Fatalf("LinkDevice() error = %v", err)
	}
	if err := r.LinkDevice("alice", "light-1"); !errors.Is(err, ErrDeviceAlreadyOwned) {
		t.Errorf("duplicate LinkDevice() error = %v, want ErrDeviceAlreadyOwned", err)
	}
	if err := r.LinkDevice("nobody", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("LinkDevice() unknown user error = %v, want ErrUserNotFound", err)
	}

	if err := r.LinkDevice("bob", "light-1"); !errors.Is(err, ErrDeviceAlreadyOwned) {
		t.Errorf("LinkDevice() of alice's device to bob error = %v, want ErrDeviceAlreadyOwned", err)
	}
	bob, _ := r.Get("bob")
	if len(bob.Devices) != 0 {
		t.Errorf("bob devices = %v, want none", bob.Devices)
	}

	owner, ok := r.OwnerOf("light-1")
	if !ok || owner != "alice" {
		t.Errorf("OwnerOf(light-1) = (%q, %v), want alice", owner, ok)
	}

	if n := r.UnlinkDevice("light-1"); n != 1 {
		t.Errorf("UnlinkDevice() changed %d users, want 1", n)
	}
	if _, ok := r.OwnerOf("light-1"); ok {
		t.Error("light-1 still owned after UnlinkDevice")
	}

	alice, _ := r.Get("alice")
	if !slices.Equal(alice.Devices, []string{"ac-1"}) {
		t.Errorf("alice devices = %v, want [ac-1]", alice.Devices)
	}
}

func TestRegistry_ListReturnsCopies(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("alice")
	_ = r.LinkDevice("alice", "light-1")

	users := r.List()
	users[0].Devices[0] = "tampered"

	alice, _ := r.Get("alice")
	if alice.Devices[0] != "light-1" {
		t.Error("List() leaked internal device slice")
	}
}
