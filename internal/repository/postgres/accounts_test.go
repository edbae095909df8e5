package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/repository"
)

func TestAccountRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	registeredAt := time.Now().UTC()
	account := domain.Account{
		ID:           "acc-123",
		Username:     "casey",
		Email:        "casey@example.com",
		PasswordHash: "argon2id$v=19$m=65536,t=3,p=4$salt$hash",
		Status:       domain.AccountStatusPending,
		RegisteredAt: registeredAt,
	}

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(
			account.ID,
			account.Username,
			account.Email,
			account.PasswordHash,
			account.Status,
			0,
			(*time.Time)(nil),
			account.RegisteredAt,
			(*time.Time)(nil),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByIdentifier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	registeredAt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "status", "failed_login_count", "locked_until", "registered_at", "last_login",
	}).AddRow(
		"acc-1", "casey", "casey@example.com", "hash", domain.AccountStatusVerified, 2, nil, registeredAt, nil,
	)

	mock.ExpectQuery(`SELECT .*FROM accounts`).WithArgs("casey", "casey").WillReturnRows(rows)

	account, err := repo.GetByIdentifier(context.Background(), "casey")
	if err != nil {
		t.Fatalf("GetByIdentifier returned error: %v", err)
	}
	if account.ID != "acc-1" {
		t.Fatalf("unexpected account id: %s", account.ID)
	}
	if account.FailedLoginCount != 2 {
		t.Fatalf("unexpected failed login count: %d", account.FailedLoginCount)
	}
	if account.Status != domain.AccountStatusVerified {
		t.Fatalf("unexpected status: %s", account.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	rows := pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "status", "failed_login_count", "locked_until", "registered_at", "last_login",
	})

	mock.ExpectQuery(`SELECT .*FROM accounts`).WithArgs("missing@example.com").WillReturnRows(rows)

	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_RecordFailedLoginBelowThreshold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	lockedUntil := time.Now().Add(15 * time.Minute).UTC()

	rows := pgxmock.NewRows([]string{"failed_login_count", "locked_until"}).AddRow(3, nil)
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs("acc-1", 5, lockedUntil).
		WillReturnRows(rows)

	result, err := repo.RecordFailedLogin(context.Background(), "acc-1", 5, lockedUntil)
	if err != nil {
		t.Fatalf("RecordFailedLogin returned error: %v", err)
	}
	if result.FailedLoginCount != 3 {
		t.Fatalf("unexpected counter: %d", result.FailedLoginCount)
	}
	if result.LockedUntil != nil {
		t.Fatal("lockout should not trigger below threshold")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_RecordFailedLoginTriggersLockout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	lockedUntil := time.Now().Add(15 * time.Minute).UTC()

	rows := pgxmock.NewRows([]string{"failed_login_count", "locked_until"}).AddRow(0, &lockedUntil)
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs("acc-1", 5, lockedUntil).
		WillReturnRows(rows)

	result, err := repo.RecordFailedLogin(context.Background(), "acc-1", 5, lockedUntil)
	if err != nil {
		t.Fatalf("RecordFailedLogin returned error: %v", err)
	}
	if result.FailedLoginCount != 0 {
		t.Fatalf("counter should reset on lockout, got %d", result.FailedLoginCount)
	}
	if result.LockedUntil == nil || !result.LockedUntil.Equal(lockedUntil) {
		t.Fatalf("expected lockout until %v, got %v", lockedUntil, result.LockedUntil)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_RecordSuccessfulLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE accounts`).
		WithArgs(0, nil, at, "acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.RecordSuccessfulLogin(context.Background(), "acc-1", at); err != nil {
		t.Fatalf("RecordSuccessfulLogin returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_DeleteMissingAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	mock.ExpectExec(`DELETE FROM accounts`).
		WithArgs("acc-missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "acc-missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
