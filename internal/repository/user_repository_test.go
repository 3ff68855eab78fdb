package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

var userColumns = []string{"id", "name", "email", "password_hash", "created_at", "updated_at"}

const (
	insertUserSQL    = `^INSERT\s+INTO\s+users\s+\(name, email, password_hash\)\s+VALUES\s+\(\?,\?,\?\)$`
	insertOAuthSQL   = `^INSERT\s+INTO\s+users\s+\(name, email, password_hash\)\s+VALUES\s+\(\?,\?,''\)$`
	selectByEmailSQL = `^SELECT\s+id,name,email,password_hash,created_at,updated_at\s+FROM\s+users\s+WHERE\s+email=\?\s+LIMIT 1$`
)

func TestUserCreate_NormalizesEmailAndHashes(t *testing.T) {
	t.Parallel()
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(insertUserSQL).
		WithArgs("Ada", "ada@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u, err := repo.Create(context.Background(), "Ada", "  Ada@Example.COM ", "hunter22", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("ID = %d, want 7", u.ID)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want the trimmed lower-cased form", u.Email)
	}
	if u.PasswordHash == "hunter22" || u.PasswordHash == "" {
		t.Fatalf("PasswordHash = %q, plaintext must never reach the database", u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not verify against the password: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserCreate_DuplicateEmailMapsToSentinel(t *testing.T) {
	t.Parallel()
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(insertUserSQL).
		WithArgs("Ada", "ada@example.com", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ada@example.com' for key 'users.uq_users_email'"))

	_, err := repo.Create(context.Background(), "Ada", "ada@example.com", "hunter22", bcrypt.MinCost)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserGetByEmail_NormalizesLookup(t *testing.T) {
	t.Parallel()
	repo, mock := newUserRepoWithMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery(selectByEmailSQL).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(3, "Jane", "jane@example.com", "$2a$10$hash", now, now))

	u, err := repo.GetByEmail(context.Background(), "  Jane@Example.Com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != 3 || u.Name != "Jane" {
		t.Errorf("got %+v, want id 3 / name Jane", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserFindOrCreateOAuth_ExistingAccountWins(t *testing.T) {
	t.Parallel()
	repo, mock := newUserRepoWithMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery(selectByEmailSQL).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(3, "Jane", "jane@example.com", "$2a$10$hash", now, now))

	u, err := repo.FindOrCreateOAuth(context.Background(), "Jane From GitHub", "jane@example.com")
	if err != nil {
		t.Fatalf("FindOrCreateOAuth: %v", err)
	}
	if u.ID != 3 {
		t.Errorf("ID = %d, want the existing account 3", u.ID)
	}
	if u.Name != "Jane" {
		t.Errorf("Name = %q, provider profile must not overwrite the stored name", u.Name)
	}
	// no INSERT was expected; a write here would fail ExpectationsWereMet
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserFindOrCreateOAuth_InsertsWhenMissing(t *testing.T) {
	t.Parallel()
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(selectByEmailSQL).
		WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(insertOAuthSQL).
		WithArgs("New User", "new@example.com").
		WillReturnResult(sqlmock.NewResult(11, 1))

	u, err := repo.FindOrCreateOAuth(context.Background(), "New User", "New@Example.com")
	if err != nil {
		t.Fatalf("FindOrCreateOAuth: %v", err)
	}
	if u.ID != 11 {
		t.Errorf("ID = %d, want 11", u.ID)
	}
	if u.PasswordHash != "" {
		t.Errorf("PasswordHash = %q, oauth accounts carry no local credential", u.PasswordHash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserFindOrCreateOAuth_DuplicateRaceRereads(t *testing.T) {
	t.Parallel()
	repo, mock := newUserRepoWithMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery(selectByEmailSQL).
		WithArgs("racer@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(insertOAuthSQL).
		WithArgs("Racer", "racer@example.com").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'racer@example.com' for key 'users.uq_users_email'"))
	mock.ExpectQuery(selectByEmailSQL).
		WithArgs("racer@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(5, "Racer", "racer@example.com", "", now, now))

	u, err := repo.FindOrCreateOAuth(context.Background(), "Racer", "racer@example.com")
	if err != nil {
		t.Fatalf("a concurrent create must not fail the login: %v", err)
	}
	if u.ID != 5 {
		t.Errorf("ID = %d, want the row the concurrent request created", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
