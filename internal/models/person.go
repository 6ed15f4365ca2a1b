// internal/models/person.go
package models

import "strings"

// PersonRecord is a directory entry for a user referenced by an event.
type PersonRecord struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

// DisplayName joins the name parts with single spaces, keeping empty
// parts in place.
func (p PersonRecord) DisplayName() string {
	return FormatDisplayName(p.FirstName, p.MiddleName, p.LastName)
}

// FormatDisplayName builds "first middle last" without collapsing
// absent parts.
func FormatDisplayName(first, middle, last string) string {
	return strings.Join([]string{first, middle, last}, " ")
}

// Recipient is the addressing half of a dispatch instruction.
type Recipient struct {
	Email string
	Name  string
}

// ClassRecord is the class half of a gateway lookup.
type ClassRecord struct {
	ID    string `json:"id"`
	Title string `json:"className"`
}

// ClassWithStudent pairs a class with its owning student.
type ClassWithStudent struct {
	Class   ClassRecord
	Student PersonRecord
}

// ClassWithTutor pairs a class with a tutor referenced by an event.
type ClassWithTutor struct {
	Class ClassRecord
	Tutor PersonRecord
}
