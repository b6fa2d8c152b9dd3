// Package directory provides the student directory: an ordered, append-only
// in-memory list of students persisted wholesale into a kvstore slot.
package directory

import (
	"errors"
	"strings"
)

// Student is one directory entry. JSON names are the persisted format and
// must not change.
type Student struct {
	ID        string `json:"id"`
	TitleName string `json:"title_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Year      int    `json:"year"`
	Major     string `json:"major"`
}

// ErrIncomplete is returned by Validate when a required field is blank.
var ErrIncomplete = errors.New("id, first name, last name and email are required")

// Trimmed returns a copy with surrounding whitespace removed from every
// string field, the way the entry form reads its inputs.
func (s Student) Trimmed() Student {
	s.ID = strings.TrimSpace(s.ID)
	s.TitleName = strings.TrimSpace(s.TitleName)
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Major = strings.TrimSpace(s.Major)
	return s
}

// Validate checks the fields the entry form requires. The store itself
// accepts any value; callers validate before Add.
func (s Student) Validate() error {
	if s.ID == "" || s.FirstName == "" || s.LastName == "" || s.Email == "" {
		return ErrIncomplete
	}
	return nil
}

// FullName joins title, first and last name, skipping blanks.
func (s Student) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.TitleName, s.FirstName, s.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// haystack is the text keyword search runs over.
func (s Student) haystack() string {
	return s.FirstName + " " + s.LastName + " " + s.Major + " " + s.Email
}
