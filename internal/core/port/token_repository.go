package port

import (
	"context"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
)

// TokenRepository persists verification codes, password reset tokens, and
// the per-account active refresh-token set.
type TokenRepository interface {
	// ReplaceVerificationCode deletes any prior codes for the account and
	// stores the new one (overwrite semantics for re-issue).
	ReplaceVerificationCode(ctx context.Context, code domain.VerificationCode) error
	GetVerificationCodeByAccount(ctx context.Context, accountID string) (*domain.VerificationCode, error)
	DeleteVerificationCodes(ctx context.Context, accountID string) error

	// ReplacePasswordResetToken overwrites any outstanding reset token for
	// the account with the provided one.
	ReplacePasswordResetToken(ctx context.Context, token domain.PasswordResetToken) error
	GetPasswordResetTokenByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error)
	DeletePasswordResetToken(ctx context.Context, id string) error

	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	// DeleteRefreshTokenByHash removes a token from the active set. It
	// succeeds when the token is already absent (logout is idempotent).
	DeleteRefreshTokenByHash(ctx context.Context, accountID, hash string) error
	// DeleteRefreshTokensForAccount revokes the whole active set and
	// returns how many tokens were removed.
	DeleteRefreshTokensForAccount(ctx context.Context, accountID string) (int, error)
}
