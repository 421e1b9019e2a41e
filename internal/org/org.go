package org

import (
	"context"

	"github.com/google/uuid"
)

// Kind distinguishes the two organization roles on an application.
type Kind string

const (
	KindIHE Kind = "ihe"
	KindLEA Kind = "lea"
)

// Ref identifies an organization as recorded on an application.
type Ref struct {
	ID   uuid.UUID
	Name string
	Kind Kind
}

// Contact is a person at an organization who receives program notices.
type Contact struct {
	ID    uuid.UUID
	OrgID uuid.UUID
	Name  string
	Email string
	Role  string
}

type Repository interface {
	ListContacts(ctx context.Context, orgID uuid.UUID) ([]Contact, error)
	CreateContact(ctx context.Context, c *Contact) error
}

// Directory is the organization/contact lookup used for notices.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// Contacts returns the contacts registered for the organization. An
// organization with no contacts yields an empty slice.
func (d *Directory) Contacts(ctx context.Context, ref Ref) ([]Contact, error) {
	return d.repo.ListContacts(ctx, ref.ID)
}

// Register records a new contact for an organization.
func (d *Directory) Register(ctx context.Context, c *Contact) error {
	return d.repo.CreateContact(ctx, c)
}
