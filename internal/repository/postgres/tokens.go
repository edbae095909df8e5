package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/repository"
)

// TokenRepository implements port.TokenRepository using PostgreSQL. Raw
// codes and tokens are never stored; every row holds a SHA-256 hash.
type TokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	repo := &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// ReplaceVerificationCode removes prior codes for the account and inserts the new one.
func (r *TokenRepository) ReplaceVerificationCode(ctx context.Context, code domain.VerificationCode) error {
	if err := r.DeleteVerificationCodes(ctx, code.AccountID); err != nil {
		return err
	}

	stmt, args, err := r.builder.
		Insert("verification_codes").
		Columns("id", "account_id", "code_hash", "created_at", "expires_at").
		Values(code.ID, code.AccountID, code.CodeHash, code.CreatedAt, code.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert verification code sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert verification code: %w", err)
	}

	return nil
}

// GetVerificationCodeByAccount returns the outstanding code for an account.
func (r *TokenRepository) GetVerificationCodeByAccount(ctx context.Context, accountID string) (*domain.VerificationCode, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "code_hash", "created_at", "expires_at").
		From("verification_codes").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select verification code sql: %w", err)
	}

	var code domain.VerificationCode
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&code.ID,
		&code.AccountID,
		&code.CodeHash,
		&code.CreatedAt,
		&code.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification code: %w", err)
	}

	return &code, nil
}

// DeleteVerificationCodes removes all codes for the account.
func (r *TokenRepository) DeleteVerificationCodes(ctx context.Context, accountID string) error {
	stmt, args, err := r.builder.
		Delete("verification_codes").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete verification codes sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete verification codes: %w", err)
	}

	return nil
}

// ReplacePasswordResetToken overwrites the outstanding reset token for the account.
func (r *TokenRepository) ReplacePasswordResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	del, delArgs, err := r.builder.
		Delete("password_reset_tokens").
		Where(squirrel.Eq{"account_id": token.AccountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete password reset tokens sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("delete password reset tokens: %w", err)
	}

	stmt, args, err := r.builder.
		Insert("password_reset_tokens").
		Columns("id", "account_id", "token_hash", "created_at", "expires_at").
		Values(token.ID, token.AccountID, token.TokenHash, token.CreatedAt, token.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert password reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password reset token: %w", err)
	}

	return nil
}

// GetPasswordResetTokenByHash looks up a reset token by its hash.
func (r *TokenRepository) GetPasswordResetTokenByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "token_hash", "created_at", "expires_at").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select password reset token sql: %w", err)
	}

	var token domain.PasswordResetToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.AccountID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan password reset token: %w", err)
	}

	return &token, nil
}

// DeletePasswordResetToken removes a reset token by id.
func (r *TokenRepository) DeletePasswordResetToken(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("password_reset_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete password reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete password reset token: %w", err)
	}

	return nil
}

// CreateRefreshToken adds a token hash to the account's active set.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.builder.
		Insert("refresh_tokens").
		Columns("id", "account_id", "token_hash", "created_at", "expires_at").
		Values(token.ID, token.AccountID, token.TokenHash, token.CreatedAt, token.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetRefreshTokenByHash looks up an active refresh token by its hash.
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "token_hash", "created_at", "expires_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	var token domain.RefreshToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.AccountID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &token, nil
}

// DeleteRefreshTokenByHash removes one token from the active set. Removing a
// token that is already absent is not an error.
func (r *TokenRepository) DeleteRefreshTokenByHash(ctx context.Context, accountID, hash string) error {
	stmt, args, err := r.builder.
		Delete("refresh_tokens").
		Where(squirrel.Eq{"account_id": accountID, "token_hash": hash}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	return nil
}

// DeleteRefreshTokensForAccount revokes the whole active set.
func (r *TokenRepository) DeleteRefreshTokensForAccount(ctx context.Context, accountID string) (int, error) {
	stmt, args, err := r.builder.
		Delete("refresh_tokens").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete refresh tokens sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
