package user

import (
	"fmt"
	"slices"
	"strings"
)

// User is a named account that owns devices. Devices lists owned device
// ids in the order they were added.
type User struct {
	Username string   `json:"username"`
	Devices  []string `json:"devices"`
}

// Clone returns an independent copy.
func (u *User) Clone() *User {
	return &User{Username: u.Username, Devices: slices.Clone(u.Devices)}
}

// Owns reports whether the user owns deviceID.
func (u *User) Owns(deviceID string) bool {
	return slices.Contains(u.Devices, deviceID)
}

// Registry holds users in insertion order. Usernames are case-sensitive.
//
// Registry is not safe for concurrent use; the home serialises access.
type Registry struct {
	users map[string]*User
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*User)}
}

// ValidateUsername rejects blank names.
func ValidateUsername(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidUsername
	}
	return nil
}

// Add registers a user with no devices.
func (r *Registry) Add(name string) (*User, error) {
	if err := ValidateUsername(name); err != nil {
		return nil, err
	}
	if _, ok := r.users[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, name)
	}
	u := &User{Username: name, Devices: []string{}}
	r.users[name] = u
	r.order = append(r.order, name)
	return u, nil
}

// Remove deletes a user and returns it so the caller can cascade over
// its devices.
func (r *Registry) Remove(name string) (*User, error) {
	u, ok := r.users[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	delete(r.users, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return u, nil
}

// Get returns the live user record. Callers outside the home should Clone it.
func (r *Registry) Get(name string) (*User, error) {
	u, ok := r.users[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	return u, nil
}

// Exists reports whether name is registered.
func (r *Registry) Exists(name string) bool {
	_, ok := r.users[name]
	return ok
}

// Len returns the number of users.
func (r *Registry) Len() int {
	return len(r.order)
}

// List returns copies of all users in insertion order.
func (r *Registry) List() []*User {
	out := make([]*User, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.users[name].Clone())
	}
	return out
}

// LinkDevice records that name owns deviceID. A device has at most one
// owner, so linking an id some user already owns fails.
func (r *Registry) LinkDevice(name, deviceID string) error {
	u, err := r.Get(name)
	if err != nil {
		return err
	}
	if owner, ok := r.OwnerOf(deviceID); ok {
		return fmt.Errorf("%w: %s owns %s", ErrDeviceAlreadyOwned, owner, deviceID)
	}
	u.Devices = append(u.Devices, deviceID)
	return nil
}

// UnlinkDevice removes deviceID from every user's device list and returns
// how many lists changed.
func (r *Registry) UnlinkDevice(deviceID string) int {
	n := 0
	for _, name := range r.order {
		u := r.users[name]
		before := len(u.Devices)
		u.Devices = slices.DeleteFunc(u.Devices, func(id string) bool { return id == deviceID })
		if len(u.Devices) != before {
			n++
		}
	}
	return n
}

// OwnerOf returns the first user (in insertion order) owning deviceID.
func (r *Registry) OwnerOf(deviceID string) (string, bool) {
	for _, name := range r.order {
		if r.users[name].Owns(deviceID) {
			return name, true
		}
	}
	return "", false
}
