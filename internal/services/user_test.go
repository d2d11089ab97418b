package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/feedback-app/internal/models"
	"github.com/diewo77/feedback-app/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) *UserService {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewUserService(store.NewUserStore(db))
}

func mustSave(t *testing.T, svc *UserService, form UserForm) *models.User {
	t.Helper()
	u, err := svc.Save(context.Background(), form)
	if err != nil {
		t.Fatalf("save %+v: %v", form, err)
	}
	return u
}

func TestCreateAssignsDefaults(t *testing.T) {
	svc := setupService(t)
	u := mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})
	if u.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if u.Role != models.RoleUser {
		t.Fatalf("expected default role ROLE_USER, got %s", u.Role)
	}
	if !u.Enabled {
		t.Fatalf("expected enabled by default")
	}
	if u.Password != placeholderPassword {
		t.Fatalf("expected placeholder password, got %q", u.Password)
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps set")
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})

	_, err := svc.Save(ctx, UserForm{Username: "bob", Email: "alice@example.com"})
	var dup *DuplicateEmailError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateEmailError, got %v", err)
	}
	if dup.Email != "alice@example.com" {
		t.Fatalf("expected conflicting address in error, got %q", dup.Email)
	}
	all, err := svc.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected no second record, got %d", len(all))
	}
}

func TestUpdateDuplicateEmail(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	a := mustSave(t, svc, UserForm{Username: "a", Email: "a@x.com"})
	mustSave(t, svc, UserForm{Username: "b", Email: "b@x.com"})

	// Changing A's email to B's address must conflict.
	_, err := svc.Save(ctx, UserForm{ID: a.ID, Username: "a", Email: "b@x.com"})
	var dup *DuplicateEmailError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateEmailError, got %v", err)
	}

	// An unchanged email is never a self-conflict.
	if _, err := svc.Save(ctx, UserForm{ID: a.ID, Username: "a", Email: "a@x.com", FullName: "Aaa"}); err != nil {
		t.Fatalf("unchanged email update: %v", err)
	}
}

func TestUpdateMissingID(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	_, err := svc.Save(ctx, UserForm{ID: 9999, Username: "ghost", Email: "ghost@example.com"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if u, ferr := svc.FindByID(ctx, 9999); ferr != nil || u != nil {
		t.Fatalf("expected no record created under id 9999, got %+v err %v", u, ferr)
	}
}

func TestUpdateMergesWhitelistOnly(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	created := mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})

	// Flip server-owned fields directly; the form merge must not touch them.
	if err := svc.Store.Save(ctx, &models.User{
		ID: created.ID, Username: created.Username, Email: created.Email,
		Password: created.Password, Role: models.RoleAdmin, Enabled: false,
		CreatedAt: created.CreatedAt,
	}); err != nil {
		t.Fatalf("prep: %v", err)
	}

	updated := mustSave(t, svc, UserForm{
		ID: created.ID, Username: "alice2", Email: "alice@example.com",
		FullName: "Alice A.", Bio: "hi", Picture: "/img/a.png",
	})
	if updated.ID != created.ID {
		t.Fatalf("id changed: %d -> %d", created.ID, updated.ID)
	}
	if updated.Username != "alice2" || updated.FullName != "Alice A." || updated.Bio != "hi" || updated.Picture != "/img/a.png" {
		t.Fatalf("editable fields not merged: %+v", updated)
	}
	if updated.Role != models.RoleAdmin {
		t.Fatalf("role must survive updates, got %s", updated.Role)
	}
	if updated.Enabled {
		t.Fatalf("enabled must survive updates")
	}
	if updated.Password != placeholderPassword {
		t.Fatalf("password must be re-stamped with the placeholder")
	}
}

func TestTimestamps(t *testing.T) {
	svc := setupService(t)
	created := mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})

	time.Sleep(50 * time.Millisecond)
	updated := mustSave(t, svc, UserForm{ID: created.ID, Username: "alice", Email: "alice@example.com", FullName: "Alice"})

	if diff := updated.CreatedAt.Sub(created.CreatedAt); diff < -time.Second || diff > time.Second {
		t.Fatalf("createdAt drifted on update: %v vs %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt did not advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
}

func TestUsernameConflictSurfacesAtSave(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})

	// Username uniqueness is not pre-checked; the store constraint decides.
	_, err := svc.Save(ctx, UserForm{Username: "alice", Email: "someone@example.com"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	b := mustSave(t, svc, UserForm{Username: "bob", Email: "bob@example.com"})
	_, err = svc.Save(ctx, UserForm{ID: b.ID, Username: "alice", Email: "bob@example.com"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken on update, got %v", err)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	svc := setupService(t)
	form := UserForm{Username: "alice", Email: "alice@example.com", FullName: "Alice A.", Bio: "bio text", Picture: "/img/a.png"}
	created := mustSave(t, svc, form)

	projected := FormFromUser(created)
	if projected.ID != created.ID {
		t.Fatalf("projection lost id")
	}
	form.ID = created.ID
	if projected != form {
		t.Fatalf("projection altered editable fields: %+v vs %+v", projected, form)
	}

	// Saving the projection back unchanged preserves it bit for bit.
	saved := mustSave(t, svc, projected)
	if FormFromUser(saved) != projected {
		t.Fatalf("round trip altered fields: %+v vs %+v", FormFromUser(saved), projected)
	}
}

func TestFindByUsernamePassThrough(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})
	u, err := svc.FindByUsername(ctx, "alice")
	if err != nil || u == nil || u.Email != "alice@example.com" {
		t.Fatalf("FindByUsername: got %+v err %v", u, err)
	}
	if u, err := svc.FindByUsername(ctx, "nobody"); err != nil || u != nil {
		t.Fatalf("expected nil,nil for missing username, got %+v err %v", u, err)
	}
}

func TestDeleteByIDSilent(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	u := mustSave(t, svc, UserForm{Username: "alice", Email: "alice@example.com"})
	if err := svc.DeleteByID(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteByID(ctx, u.ID); err != nil {
		t.Fatalf("second delete must stay silent: %v", err)
	}
	if ok, err := svc.ExistsByID(ctx, u.ID); err != nil || ok {
		t.Fatalf("expected record gone, ok=%v err=%v", ok, err)
	}
}
