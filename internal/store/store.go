package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"uk.co.dudmesh.contacts/internal/boot"
	"uk.co.dudmesh.contacts/internal/model"
)

// Store is the authoritative directory of users and contacts. Uniqueness of
// user email/username and contact email is enforced by the database, not by
// pre-checks, so concurrent duplicate inserts race safely: exactly one wins.
type Store struct {
	db *sqlx.DB
}

func New(config *boot.Config) (*Store, error) {
	return Open(config.DatabasePath)
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`create table if not exists users(
		ID        integer primary key autoincrement,
		CreatedAt DATETIME not null,
		UpdatedAt DATETIME null,
		Username  text not null unique,
		Email     text not null unique,
		Password  text not null,
		IsActive  boolean not null default 1,
		Confirmed boolean not null default 0,
		Role      text not null default 'user',
		AvatarURL text null
	)`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = s.db.Exec(`create table if not exists contacts(
		ID        integer primary key autoincrement,
		CreatedAt DATETIME not null,
		UpdatedAt DATETIME null,
		FirstName text not null,
		LastName  text not null,
		Email     text not null unique,
		Phone     text not null,
		Birthday  DATE not null,
		Notes     text null,
		UserID    integer not null references users(ID)
	)`)
	if err != nil {
		return fmt.Errorf("creating contacts table: %w", err)
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, params *model.CreateUserParams, passwordHash string) (*model.User, error) {
	user := &model.User{
		CreatedAt: time.Now().UTC(),
		Username:  params.Username,
		Email:     params.Email,
		Password:  passwordHash,
		IsActive:  true,
		Confirmed: false,
		Role:      model.RoleUser,
	}

	res, err := s.db.NamedExecContext(ctx, `insert into users
		(CreatedAt, Username, Email, Password, IsActive, Confirmed, Role)
		values(:CreatedAt, :Username, :Email, :Password, :IsActive, :Confirmed, :Role)`, user)
	if err != nil {
		if isUniqueViolation(err, "users.Username") {
			return nil, model.ErrorDuplicateUsername
		}
		if isUniqueViolation(err, "users.Email") {
			return nil, model.ErrorDuplicateEmail
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inserted user ID: %w", err)
	}

	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := s.db.GetContext(ctx, user, `select * from users where Email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.SelectContext(ctx, &users, `select * from users order by ID`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *Store) ConfirmUser(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set Confirmed = 1, UpdatedAt = ? where Email = ?`,
		time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("confirming user: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set Password = ?, UpdatedAt = ? where Email = ?`,
		passwordHash, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func (s *Store) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set AvatarURL = ?, UpdatedAt = ? where ID = ?`,
		avatarURL, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func (s *Store) CreateContact(ctx context.Context, userID int64, params *model.CreateContactParams) (*model.Contact, error) {
	contact := &model.Contact{
		CreatedAt: time.Now().UTC(),
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Birthday:  params.Birthday,
		Notes:     params.Notes,
		UserID:    userID,
	}

	res, err := s.db.NamedExecContext(ctx, `insert into contacts
		(CreatedAt, FirstName, LastName, Email, Phone, Birthday, Notes, UserID)
		values(:CreatedAt, :FirstName, :LastName, :Email, :Phone, :Birthday, :Notes, :UserID)`, contact)
	if err != nil {
		if isUniqueViolation(err, "contacts.Email") {
			return nil, model.ErrorDuplicateEmail
		}
		return nil, fmt.Errorf("inserting contact: %w", err)
	}

	contact.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inserted contact ID: %w", err)
	}

	return contact, nil
}

func (s *Store) GetContact(ctx context.Context, contactID int64, userID int64) (*model.Contact, error) {
	contact := &model.Contact{}
	err := s.db.GetContext(ctx, contact,
		`select * from contacts where ID = ? and UserID = ?`, contactID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorContactNotFound
		}
		return nil, fmt.Errorf("fetching contact: %w", err)
	}
	return contact, nil
}

func (s *Store) ListContacts(ctx context.Context, userID int64, filter *model.ContactFilter) ([]model.Contact, error) {
	query := `select * from contacts where UserID = ?`
	args := []interface{}{userID}

	if filter != nil && filter.Name != "" {
		query += ` and (FirstName like ? or LastName like ?)`
		pattern := "%" + filter.Name + "%"
		args = append(args, pattern, pattern)
	}
	if filter != nil && filter.Email != "" {
		query += ` and Email like ?`
		args = append(args, "%"+filter.Email+"%")
	}
	query += ` order by ID`

	contacts := []model.Contact{}
	err := s.db.SelectContext(ctx, &contacts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

func (s *Store) UpdateContact(ctx context.Context, contactID int64, userID int64, params *model.UpdateContactParams) (*model.Contact, error) {
	contact, err := s.GetContact(ctx, contactID, userID)
	if err != nil {
		return nil, err
	}

	if params.FirstName != nil {
		contact.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		contact.LastName = *params.LastName
	}
	if params.Email != nil {
		contact.Email = *params.Email
	}
	if params.Phone != nil {
		contact.Phone = *params.Phone
	}
	if params.Birthday != nil {
		contact.Birthday = *params.Birthday
	}
	if params.Notes != nil {
		contact.Notes = params.Notes
	}
	now := time.Now().UTC()
	contact.UpdatedAt = &now

	_, err = s.db.NamedExecContext(ctx, `update contacts set
		UpdatedAt = :UpdatedAt, FirstName = :FirstName, LastName = :LastName,
		Email = :Email, Phone = :Phone, Birthday = :Birthday, Notes = :Notes
		where ID = :ID and UserID = :UserID`, contact)
	if err != nil {
		if isUniqueViolation(err, "contacts.Email") {
			return nil, model.ErrorDuplicateEmail
		}
		return nil, fmt.Errorf("updating contact: %w", err)
	}

	return contact, nil
}

func (s *Store) DeleteContact(ctx context.Context, contactID int64, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`delete from contacts where ID = ? and UserID = ?`, contactID, userID)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrorContactNotFound
	}
	return nil
}

func isUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return strings.Contains(sqliteErr.Error(), column)
}
