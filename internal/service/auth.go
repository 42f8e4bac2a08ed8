// Package service implements the collaborator boundary around the
// booking core: authentication, role reconciliation and the catalog
// that supplies seat-label universes to the reservation engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cinebook/cinema-booking/internal/model"
	"github.com/cinebook/cinema-booking/internal/utils"
)

// ErrAuthentication is returned for any failed login: unknown user,
// wrong password or deactivated account.  One error for all cases so
// callers cannot enumerate usernames.
var ErrAuthentication = errors.New("authentication failed")

// ErrUsernameTaken is returned when registering an already-used name.
var ErrUsernameTaken = errors.New("username already exists")

// UserStore is the persistence boundary the auth service depends on.
// Create must report a duplicate username with an error wrapping
// ErrUsernameTaken so callers can distinguish it from outages.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash, role string) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// Session is the result of a successful authentication: the verified
// user identity plus a signed access token the caller presents on
// subsequent requests.
type Session struct {
	UserID uint64
	Role   string
	Token  utils.AccessToken
}

// AuthService verifies credentials and manages user accounts.
type AuthService struct {
	users      UserStore
	jwtSecret  string
	accessTTL  int // minutes
	bcryptCost int
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, jwtSecret string, accessTTLMin, bcryptCost int) *AuthService {
	if users == nil {
		panic("nil UserStore passed to NewAuthService")
	}
	return &AuthService{users: users, jwtSecret: jwtSecret, accessTTL: accessTTLMin, bcryptCost: bcryptCost}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return model.User{}, fmt.Errorf("username and password are required")
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.users.Create(ctx, username, hash, role)
	if err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

// Authenticate verifies the credentials and returns a Session carrying
// the verified user ID.  The booking core trusts this identity and does
// not re-derive it.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return Session{}, ErrAuthentication
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrAuthentication
	}
	tok, err := utils.NewAccessToken(s.jwtSecret, u.ID, u.Role, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: u.ID, Role: u.Role, Token: tok}, nil
}

// UserUpdate carries the mutable account fields.  A nil Password means
// the request does not touch credentials at all.
type UserUpdate struct {
	Password *string
}

// UpdateUser applies an account update.  The password handling is an
// explicit three-way decision:
//
//   1. Password absent from the update: credentials are left alone.
//   2. Password present but identical to the current one: the stored
//      hash (and therefore its salt) is kept unchanged.
//   3. Password present and different: the password is rehashed, which
//      generates a fresh salt.
//
// The cases are spelled out separately so that an unchanged password
// can never silently rotate or, worse, orphan the stored salt.
func (s *AuthService) UpdateUser(ctx context.Context, id uint64, upd UserUpdate) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	switch {
	case upd.Password == nil:
		// No credential change requested.
	case utils.VerifyPassword(u.PasswordHash, *upd.Password):
		// Same password resubmitted; keep hash and salt as they are.
	default:
		hash, err := utils.HashPassword(*upd.Password, s.bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
			return model.User{}, err
		}
	}
	return s.users.GetByID(ctx, id)
}
