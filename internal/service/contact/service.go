package contact

import (
	"context"

	"uk.co.dudmesh.contacts/internal/model"
)

type Directory interface {
	CreateContact(ctx context.Context, userID int64, params *model.CreateContactParams) (*model.Contact, error)
	GetContact(ctx context.Context, contactID int64, userID int64) (*model.Contact, error)
	ListContacts(ctx context.Context, userID int64, filter *model.ContactFilter) ([]model.Contact, error)
	UpdateContact(ctx context.Context, contactID int64, userID int64, params *model.UpdateContactParams) (*model.Contact, error)
	DeleteContact(ctx context.Context, contactID int64, userID int64) error
}

type service struct {
	directory Directory
}

func New(directory Directory) *service {
	return &service{directory}
}

// Create inserts a contact for owner. Contact emails are unique across all
// owners, not per owner; the database index arbitrates and a violation
// surfaces as ErrorDuplicateEmail.
func (s *service) Create(ctx context.Context, owner *model.User, params *model.CreateContactParams) (*model.Contact, error) {
	return s.directory.CreateContact(ctx, owner.ID, params)
}

func (s *service) Fetch(ctx context.Context, owner *model.User, contactID int64) (*model.Contact, error) {
	return s.directory.GetContact(ctx, contactID, owner.ID)
}

// List returns the owner's contacts, optionally filtered by a substring
// match on first/last name or email.
func (s *service) List(ctx context.Context, owner *model.User, filter *model.ContactFilter) ([]model.Contact, error) {
	return s.directory.ListContacts(ctx, owner.ID, filter)
}

func (s *service) Update(ctx context.Context, owner *model.User, contactID int64, params *model.UpdateContactParams) (*model.Contact, error) {
	return s.directory.UpdateContact(ctx, contactID, owner.ID, params)
}

func (s *service) Delete(ctx context.Context, owner *model.User, contactID int64) error {
	return s.directory.DeleteContact(ctx, contactID, owner.ID)
}
