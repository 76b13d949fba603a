package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USER DIRECTORY - Staff records in insertion order
// =============================================================================

// UserLookup is the read side of the directory needed by the calendar store.
type UserLookup interface {
	UserExists(id UserID) bool
}

// Cascader removes every record that references a user.
type Cascader interface {
	RemoveEventsForUser(id UserID) int
}

// Directory owns User records. It is not safe for concurrent use;
// Engine serializes access.
type Directory struct {
	users   []User
	index   map[UserID]int
	nextID  UserID
	cascade Cascader
	now     func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		index:  make(map[UserID]int),
		nextID: 1,
		now:    time.Now,
	}
}

// SetCascade attaches the store whose records must go with a deleted user.
func (d *Directory) SetCascade(c Cascader) {
	d.cascade = c
}

// AddUser validates and appends a user with the next sequential id.
func (d *Directory) AddUser(firstName, lastName string, hourlyWage decimal.Decimal) (User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	switch {
	case firstName == "":
		return User{}, invalid("first_name", "first name is required")
	case lastName == "":
		return User{}, invalid("last_name", "last name is required")
	case hourlyWage.IsNegative():
		return User{}, invalid("hourly_wage", "hourly wage must not be negative")
	}

	u := User{
		ID:         d.nextID,
		FirstName:  firstName,
		LastName:   lastName,
		HourlyWage: hourlyWage,
		CreatedAt:  d.now().UTC(),
	}
	d.nextID++
	d.index[u.ID] = len(d.users)
	d.users = append(d.users, u)
	return u, nil
}

// UpdateWage changes a user's hourly wage in place.
func (d *Directory) UpdateWage(id UserID, newWage decimal.Decimal) (User, error) {
	i, ok := d.index[id]
	if !ok {
		return User{}, userNotFound(id)
	}
	if newWage.IsNegative() {
		return User{}, invalid("hourly_wage", "hourly wage must not be negative")
	}
	d.users[i].HourlyWage = newWage
	return d.users[i], nil
}

// DeleteUser removes the user's events through the cascade, then the user.
// The existence check runs first and neither step can fail afterwards, so
// callers never observe a user without events or events without a user.
// It returns the number of cascaded events.
func (d *Directory) DeleteUser(id UserID) (int, error) {
	i, ok := d.index[id]
	if !ok {
		return 0, userNotFound(id)
	}

	removed := 0
	if d.cascade != nil {
		removed = d.cascade.RemoveEventsForUser(id)
	}

	d.users = append(d.users[:i], d.users[i+1:]...)
	delete(d.index, id)
	for j := i; j < len(d.users); j++ {
		d.index[d.users[j].ID] = j
	}
	return removed, nil
}

// GetUser returns a user by id.
func (d *Directory) GetUser(id UserID) (User, error) {
	i, ok := d.index[id]
	if !ok {
		return User{}, userNotFound(id)
	}
	return d.users[i], nil
}

func (d *Directory) UserExists(id UserID) bool {
	_, ok := d.index[id]
	return ok
}

// ListUsers returns a copy of all users in insertion order.
func (d *Directory) ListUsers() []User {
	out := make([]User, len(d.users))
	copy(out, d.users)
	return out
}

func (d *Directory) Len() int { return len(d.users) }

// =============================================================================
// SNAPSHOT / RESTORE
// =============================================================================

type directorySnapshot struct {
	users  []User
	nextID UserID
}

func (d *Directory) snapshot() directorySnapshot {
	return directorySnapshot{users: d.ListUsers(), nextID: d.nextID}
}

func (d *Directory) restore(s directorySnapshot) {
	d.users = s.users
	d.nextID = s.nextID
	d.reindex()
}

// load replaces the directory contents with persisted users. The id
// sequence continues after the highest loaded id.
func (d *Directory) load(users []User) {
	d.users = make([]User, len(users))
	copy(d.users, users)
	d.nextID = 1
	for _, u := range d.users {
		if u.ID >= d.nextID {
			d.nextID = u.ID + 1
		}
	}
	d.reindex()
}

func (d *Directory) reindex() {
	d.index = make(map[UserID]int, len(d.users))
	for i, u := range d.users {
		d.index[u.ID] = i
	}
}
