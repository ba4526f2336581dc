package models

import "strings"

// User is a DORA account. Only the fields needed to reach prescribers are loaded.
type User struct {
	ID        string `db:"id" json:"-"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

// Structure is a social-service provider.
type Structure struct {
	Slug  string `db:"slug" json:"slug"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"-"`
}

// Service is an offer published by a structure.
type Service struct {
	Slug          string `db:"slug" json:"slug"`
	Name          string `db:"name" json:"name"`
	StructureSlug string `db:"structure_slug" json:"structureSlug"`
	ContactEmail  string `db:"contact_email" json:"-"`
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
