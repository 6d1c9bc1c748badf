// Package session orchestrates the token lifecycle: issue on login, delete on
// logout, and the two-sided validation that combines stateless signature
// verification with the stateful revocation check.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/auth-space/core/internal/models"
	"github.com/auth-space/core/internal/pkg/signer"
	"github.com/auth-space/core/internal/pkg/tokenstore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRevoked means the store holds no token for the identity: the
	// session was logged out or its store entry expired.
	ErrRevoked = errors.New("session revoked")
	// ErrSuperseded means a newer login replaced the presented token.
	ErrSuperseded = errors.New("session superseded by a newer login")
)

// dummyHash keeps the bcrypt cost of a login against an unknown email in the
// same ballpark as one against a wrong password.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// UserStore is the slice of the user collaborator the session manager needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.UserModel, error)
	RecordLogin(ctx context.Context, id, ip string) error
}

// Manager is the per-principal session state machine. The revocation store is
// the single source of truth for liveness; the token's own signed expiry is an
// independent second bound, and the shorter effective lifetime wins.
type Manager struct {
	users    UserStore
	signer   *signer.Signer
	tokens   *tokenstore.Store
	lifetime time.Duration
	log      *zap.Logger
}

func NewManager(users UserStore, sg *signer.Signer, tokens *tokenstore.Store, lifetime time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		users:    users,
		signer:   sg,
		tokens:   tokens,
		lifetime: lifetime,
		log:      log,
	}
}

// Login checks credentials, issues a token and records it in the revocation
// store under the identity, overwriting any previous session for it. The old
// token becomes unrecoverable even though its signature is still valid.
func (m *Manager) Login(ctx context.Context, email, password, ip string) (string, error) {
	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := m.signer.Issue(u.Email, m.lifetime)
	if err != nil {
		return "", err
	}
	if err := m.tokens.Put(ctx, u.Email, token, m.lifetime); err != nil {
		m.log.Error("revocation store put failed",
			zap.String("identity", u.Email), zap.Error(err))
		return "", err
	}

	if err := m.users.RecordLogin(ctx, u.ID, ip); err != nil {
		m.log.Warn("record last login failed",
			zap.String("identity", u.Email), zap.Error(err))
	}
	return token, nil
}

// Logout deletes the store entry for identity, invalidating the current token
// regardless of its remaining signed lifetime. Idempotent: removed reports
// whether a session actually existed.
func (m *Manager) Logout(ctx context.Context, identity string) (bool, error) {
	removed, err := m.tokens.Delete(ctx, identity)
	if err != nil {
		m.log.Error("revocation store delete failed",
			zap.String("identity", identity), zap.Error(err))
		return false, err
	}
	return removed, nil
}

// Validate accepts a presented token only if its signature and expiry check
// out AND the revocation store still holds exactly this token for the subject
// identity. Store failures propagate as tokenstore errors, never as ErrRevoked.
func (m *Manager) Validate(ctx context.Context, presented string) (string, error) {
	identity, err := m.signer.Verify(presented)
	if err != nil {
		return "", err
	}

	current, found, err := m.tokens.Get(ctx, identity)
	if err != nil {
		m.log.Error("revocation store get failed",
			zap.String("identity", identity), zap.Error(err))
		return "", err
	}
	if !found {
		return "", ErrRevoked
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(presented)) != 1 {
		return "", ErrSuperseded
	}
	return identity, nil
}
