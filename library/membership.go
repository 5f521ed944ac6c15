package library

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)
)

// Membership owns member records and their uniqueness rules.
type Membership struct {
	db    *Database
	clock Clock
}

func NewMembership(db *Database, clock Clock) *Membership {
	return &Membership{db: db, clock: clock}
}

// Add validates and registers a member. The registration date is set to
// today and never changes. Email uniqueness is case-insensitive; the
// prior read here is backed by a unique index on lower(email), so a
// conflicting concurrent insert still surfaces as a validation error.
func (m *Membership) Add(name, email, phone string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return 0, fmt.Errorf("%w: member name cannot be empty", ErrValidation)
	}
	if email == "" {
		return 0, fmt.Errorf("%w: email address is required", ErrValidation)
	}
	if phone == "" {
		return 0, fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if !phonePattern.MatchString(phone) {
		return 0, fmt.Errorf("%w: phone number must be exactly 10 digits", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return 0, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	exists, err := m.db.MemberEmailExists(email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("%w: member with this email already exists", ErrValidation)
	}

	return m.db.AddMember(name, email, phone, m.clock.Today())
}

func (m *Membership) Exists(memberID int64) (bool, error) {
	return m.db.MemberExists(memberID)
}

func (m *Membership) Get(memberID int64) (*Member, error) {
	return m.db.GetMember(memberID)
}

func (m *Membership) List() ([]Member, error) {
	return m.db.GetAllMembers()
}
