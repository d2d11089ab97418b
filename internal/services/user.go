package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/feedback-app/internal/models"
	"github.com/diewo77/feedback-app/internal/store"
)

// placeholderPassword is written on every save. Forms never carry a password
// and there is no credential scheme in this app.
const placeholderPassword = "pwd1234"

var (
	// ErrUserNotFound reports an update submitted against a nonexistent id.
	ErrUserNotFound = errors.New("user_not_found")
	// ErrUsernameTaken reports a username unique-constraint violation
	// surfaced by the store at save time.
	ErrUsernameTaken = errors.New("username_taken")
)

// DuplicateEmailError names the address that is already in use.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email already in use: %s", e.Email)
}

// UserForm is the externally editable subset of a user record. ID is set
// only on the update path, forced from the request path by the handler.
type UserForm struct {
	ID       uint
	Username string
	Email    string
	FullName string
	Bio      string
	Picture  string
}

type UserService struct {
	Store store.UserStore
}

func NewUserService(s store.UserStore) *UserService { return &UserService{Store: s} }

func (s *UserService) FindAll(ctx context.Context) ([]models.User, error) {
	return s.Store.FindAll(ctx)
}

// FindByID returns nil without error when the id is absent; read views show
// an empty record rather than an error page.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.Store.FindByID(ctx, id)
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.Store.FindByUsername(ctx, username)
}

// Save resolves create-vs-update from the form's ID, enforces email
// uniqueness, merges the editable fields and persists.
//
// The existence check before the write is a fast-path only: two concurrent
// saves with the same email can both pass it, and the database unique
// constraint is what actually decides. A constraint violation at save time
// is reported as a conflict, never as a raw storage error.
func (s *UserService) Save(ctx context.Context, form UserForm) (*models.User, error) {
	var target *models.User
	if form.ID != 0 {
		existing, err := s.Store.FindByID(ctx, form.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			// Never create a record under a caller-supplied id.
			return nil, ErrUserNotFound
		}
		target = existing
	}

	emailChanged := target == nil || form.Email != target.Email
	if emailChanged {
		taken, err := s.Store.ExistsByEmail(ctx, form.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &DuplicateEmailError{Email: form.Email}
		}
	}

	if target == nil {
		target = &models.User{Role: models.RoleUser, Enabled: true}
	}
	applyForm(form, target)

	if err := s.Store.Save(ctx, target); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, s.classifyDuplicate(ctx, form, emailChanged)
		}
		return nil, err
	}
	return target, nil
}

// DeleteByID removes the record unconditionally; a missing id is silent.
func (s *UserService) DeleteByID(ctx context.Context, id uint) error {
	return s.Store.DeleteByID(ctx, id)
}

func (s *UserService) ExistsByID(ctx context.Context, id uint) (bool, error) {
	return s.Store.ExistsByID(ctx, id)
}

// classifyDuplicate attributes a constraint violation that slipped past the
// email fast-path. When the submitted email was new, re-check it: a
// concurrent writer may have claimed it between check and save. Otherwise
// the only remaining unique column is the username.
func (s *UserService) classifyDuplicate(ctx context.Context, form UserForm, emailChanged bool) error {
	if emailChanged {
		if taken, err := s.Store.ExistsByEmail(ctx, form.Email); err == nil && taken {
			return &DuplicateEmailError{Email: form.Email}
		}
	}
	return ErrUsernameTaken
}

// applyForm copies the editable fields onto the record. ID, Role, Enabled
// and both timestamps are never taken from a submission; the password is
// always the server placeholder.
func applyForm(form UserForm, u *models.User) {
	u.Username = form.Username
	u.Email = form.Email
	u.FullName = form.FullName
	u.Bio = form.Bio
	u.Picture = form.Picture
	u.Password = placeholderPassword
}

// FormFromUser projects the editable subset of a record for form pre-fill.
// Password, role, enabled and timestamps never reach the form.
func FormFromUser(u *models.User) UserForm {
	return UserForm{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Bio:      u.Bio,
		Picture:  u.Picture,
	}
}
