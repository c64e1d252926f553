package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
	"github.com/sokrates1989/dbsnap/internal/core/repository"
)

func newTestRepository(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db)
}

func TestCreateAndFindUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewUser("alice", "hashed-pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user.Username != "alice" || user.Password != "hashed-pw" {
		t.Errorf("user = %+v", user)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("timestamps not persisted")
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewUser("alice", "pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, domain.NewUser("alice", "other")); err == nil {
		t.Fatal("duplicate username accepted")
	}
}

func TestFindUnknownUser(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByUsername(context.Background(), "nobody")
	if err == nil || !strings.Contains(err.Error(), "user not found") {
		t.Errorf("err = %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewUser("alice", "old")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Update(ctx, domain.NewUser("alice", "new")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	user, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user.Password != "new" {
		t.Errorf("password = %s", user.Password)
	}
}

func TestUpdateUnknownUser(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Update(context.Background(), domain.NewUser("nobody", "pw"))
	if err == nil || !strings.Contains(err.Error(), "user not found") {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewUser("alice", "pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "alice"); err == nil {
		t.Error("second delete succeeded")
	}
}

func TestListUsersSorted(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		if err := repo.Create(ctx, domain.NewUser(name, "pw")); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := make([]string, len(users))
	for i, u := range users {
		got[i] = u.Username
	}
	want := []string{"alice", "bob", "carol"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("usernames = %v, want %v", got, want)
		}
	}
}
