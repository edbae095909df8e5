package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/repository"
)

const strongTestPassword = "Sup3r!SecurePass#7890"

type mockAccountRepository struct {
	createErr      error
	createCalls    int
	createdAccount domain.Account

	getByIDResult *domain.Account
	getByIDErr    error
	getByIDCalls  int

	getByEmailResult *domain.Account
	getByEmailErr    error
	getByEmailCalls  int
	getByEmailLast   string

	getByIdentifierResult *domain.Account
	getByIdentifierErr    error
	getByIdentifierCalls  int
	getByIdentifierLast   string

	updateStatusErr    error
	updateStatusCalls  int
	updateStatusID     string
	updateStatusStatus domain.AccountStatus

	updatePasswordErr   error
	updatePasswordCalls int
	updatePasswordID    string
	updatePasswordHash  string

	failedLoginResult port.FailedLoginResult
	failedLoginErr    error
	failedLoginCalls  int
	failedLoginID     string
	failedLoginMax    int
	failedLoginUntil  time.Time

	successfulLoginErr   error
	successfulLoginCalls int
	successfulLoginID    string

	deleteErr   error
	deleteCalls int
	deleteID    string
}

func (m *mockAccountRepository) Create(_ context.Context, account domain.Account) error {
	m.createCalls++
	m.createdAccount = account
	return m.createErr
}

func (m *mockAccountRepository) GetByID(_ context.Context, _ string) (*domain.Account, error) {
	m.getByIDCalls++
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	if m.getByIDResult == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.getByIDResult
	return &copy, nil
}

func (m *mockAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.getByEmailCalls++
	m.getByEmailLast = email
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	if m.getByEmailResult == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.getByEmailResult
	return &copy, nil
}

func (m *mockAccountRepository) GetByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	m.getByIdentifierCalls++
	m.getByIdentifierLast = identifier
	if m.getByIdentifierErr != nil {
		return nil, m.getByIdentifierErr
	}
	if m.getByIdentifierResult == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.getByIdentifierResult
	return &copy, nil
}

func (m *mockAccountRepository) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	m.updateStatusCalls++
	m.updateStatusID = id
	m.updateStatusStatus = status
	return m.updateStatusErr
}

func (m *mockAccountRepository) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	m.updatePasswordCalls++
	m.updatePasswordID = id
	m.updatePasswordHash = passwordHash
	return m.updatePasswordErr
}

func (m *mockAccountRepository) RecordFailedLogin(_ context.Context, id string, threshold int, lockedUntil time.Time) (port.FailedLoginResult, error) {
	m.failedLoginCalls++
	m.failedLoginID = id
	m.failedLoginMax = threshold
	m.failedLoginUntil = lockedUntil
	return m.failedLoginResult, m.failedLoginErr
}

func (m *mockAccountRepository) RecordSuccessfulLogin(_ context.Context, id string, _ time.Time) error {
	m.successfulLoginCalls++
	m.successfulLoginID = id
	return m.successfulLoginErr
}

func (m *mockAccountRepository) Delete(_ context.Context, id string) error {
	m.deleteCalls++
	m.deleteID = id
	return m.deleteErr
}

type mockTokenRepository struct {
	replaceVerificationErr   error
	replaceVerificationCalls int
	replacedVerification     domain.VerificationCode

	getVerificationResult *domain.VerificationCode
	getVerificationErr    error
	getVerificationCalls  int

	deleteVerificationErr   error
	deleteVerificationCalls int
	deleteVerificationID    string

	replaceResetErr   error
	replaceResetCalls int
	replacedReset     domain.PasswordResetToken

	getResetResult   *domain.PasswordResetToken
	getResetErr      error
	getResetCalls    int
	getResetLastHash string

	deleteResetErr   error
	deleteResetCalls int
	deleteResetID    string

	createRefreshErr   error
	createRefreshCalls int
	createdRefresh     domain.RefreshToken

	getRefreshResult   *domain.RefreshToken
	getRefreshErr      error
	getRefreshCalls    int
	getRefreshLastHash string

	deleteRefreshErr      error
	deleteRefreshCalls    int
	deleteRefreshAccount  string
	deleteRefreshLastHash string

	deleteAllRefreshCount   int
	deleteAllRefreshErr     error
	deleteAllRefreshCalls   int
	deleteAllRefreshAccount string
}

func (m *mockTokenRepository) ReplaceVerificationCode(_ context.Context, code domain.VerificationCode) error {
	m.replaceVerificationCalls++
	m.replacedVerification = code
	return m.replaceVerificationErr
}

func (m *mockTokenRepository) GetVerificationCodeByAccount(_ context.Context, _ string) (*domain.VerificationCode, error) {
	m.getVerificationCalls++
	if m.getVerificationErr != nil {
		return nil, m.getVerificationErr
	}
	if m.getVerificationResult == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.getVerificationResult
	return &copy, nil
}

func (m *mockTokenRepository) DeleteVerificationCodes(_ context.Context, accountID string) error {
	m.deleteVerificationCalls++
	m.deleteVerificationID = accountID
	return m.deleteVerificationErr
}

func (m *mockTokenRepository) ReplacePasswordResetToken(_ context.Context, token domain.PasswordResetToken) error {
	m.replaceResetCalls++
	m.replacedReset = token
	return m.replaceResetErr
}

func (m *mockTokenRepository) GetPasswordResetTokenByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	m.getResetCalls++
	m.getResetLastHash = hash
	if m.getResetErr != nil {
		return nil, m.getResetErr
	}
	if m.getResetResult == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.getResetResult
	return &copy, nil
}

func (m *mockTokenRepository) DeletePasswordResetToken(_ context.Context, id string) error {
	m.deleteResetCalls++
	m.deleteResetID = id
	return m.deleteResetErr
}

func (m *mockTokenRepository) CreateRefreshToken(_ context.Context, token domain.RefreshToken) error {
	m.createRefreshCalls++
	m.createdRefresh = token
	return m.createRefreshErr
}

func (m *mockTokenRepository) GetRefreshTokenByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	m.getRefreshCalls++
	m.getRefreshLastHash = hash
	if m.getRefreshErr != nil {
		return nil, m.getRefreshErr
	}
	if m.getRefreshResult == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.getRefreshResult
	return &copy, nil
}

func (m *mockTokenRepository) DeleteRefreshTokenByHash(_ context.Context, accountID, hash string) error {
	m.deleteRefreshCalls++
	m.deleteRefreshAccount = accountID
	m.deleteRefreshLastHash = hash
	return m.deleteRefreshErr
}

func (m *mockTokenRepository) DeleteRefreshTokensForAccount(_ context.Context, accountID string) (int, error) {
	m.deleteAllRefreshCalls++
	m.deleteAllRefreshAccount = accountID
	return m.deleteAllRefreshCount, m.deleteAllRefreshErr
}

type sentMail struct {
	email     string
	code      string
	token     string
	message   string
	expiresAt time.Time
}

type mockNotifier struct {
	verificationErr   error
	verificationCalls int
	lastVerification  sentMail

	resetErr   error
	resetCalls int
	lastReset  sentMail

	contactErr   error
	contactCalls int
	lastContact  sentMail
}

func (m *mockNotifier) SendVerificationCode(_ context.Context, email, code string, expiresAt time.Time) error {
	m.verificationCalls++
	m.lastVerification = sentMail{email: email, code: code, expiresAt: expiresAt}
	return m.verificationErr
}

func (m *mockNotifier) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	m.resetCalls++
	m.lastReset = sentMail{email: email, token: token, expiresAt: expiresAt}
	return m.resetErr
}

func (m *mockNotifier) SendContactMessage(_ context.Context, fromEmail, message string) error {
	m.contactCalls++
	m.lastContact = sentMail{email: fromEmail, message: message}
	return m.contactErr
}

type mockEventPublisher struct {
	registeredCalls int
	registered      domain.AccountRegisteredEvent

	verifiedCalls int
	verified      domain.AccountVerifiedEvent

	lockedCalls int
	locked      domain.AccountLockedEvent

	passwordChangedCalls int
	passwordChanged      domain.PasswordChangedEvent

	resetRequestedCalls int
	resetRequested      domain.PasswordResetRequestedEvent

	deletedCalls int
	deleted      domain.AccountDeletedEvent

	err error
}

func (m *mockEventPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	m.registeredCalls++
	m.registered = event
	return m.err
}

func (m *mockEventPublisher) PublishAccountVerified(_ context.Context, event domain.AccountVerifiedEvent) error {
	m.verifiedCalls++
	m.verified = event
	return m.err
}

func (m *mockEventPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	m.lockedCalls++
	m.locked = event
	return m.err
}

func (m *mockEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	m.passwordChangedCalls++
	m.passwordChanged = event
	return m.err
}

func (m *mockEventPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	m.resetRequestedCalls++
	m.resetRequested = event
	return m.err
}

func (m *mockEventPublisher) PublishAccountDeleted(_ context.Context, event domain.AccountDeletedEvent) error {
	m.deletedCalls++
	m.deleted = event
	return m.err
}

var errMockFailure = errors.New("mock failure")
