package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/metrics"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/repository"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

const (
	msgInvalidCredentials = "Credenciales inválidas."
	msgAccessDenied       = "Acceso denegado"

	dummyPassword = "not-a-real-password"
)

// Session is a freshly issued token pair plus the profile it was built
// from.  The handler turns it into cookies.
type Session struct {
	Profile      model.UserProfile
	AccessToken  string
	RefreshToken string
}

// SessionService owns the session lifecycle.  The only server-side state
// is the refresh verifier stored on the user row, so each user has at most
// one live refresh session.
type SessionService struct {
	users  UserStore
	tokens RefreshTokenStore
	issuer *utils.TokenIssuer
	cost   int
	log    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewSessionService(users UserStore, tokens RefreshTokenStore, issuer *utils.TokenIssuer, cost int, log *slog.Logger) *SessionService {
	return &SessionService{users: users, tokens: tokens, issuer: issuer, cost: cost, log: log}
}

// SignIn verifies email and password and opens a session.  An unknown
// email and a wrong password fail identically.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return Session{}, internal("signin lookup", err)
		}
		// compare anyway so response time does not reveal unknown emails
		utils.VerifyPassword(s.dummy(), password)
		metrics.AuthEvent(metrics.LoginFail)
		return Session{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		metrics.AuthEvent(metrics.LoginFail)
		return Session{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	sess, err := s.issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	metrics.AuthEvent(metrics.LoginOK)
	return sess, nil
}

// Refresh rotates the session of userID.  presented is the raw refresh
// token that already passed signature and expiry checks.  A token that
// does not match the stored verifier closes the session.
func (s *SessionService) Refresh(ctx context.Context, userID int64, presented string) (Session, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthEvent(metrics.RefreshFail)
			return Session{}, apperr.Unauthorized(msgAccessDenied)
		}
		return Session{}, internal("refresh lookup", err)
	}
	if u.RefreshTokenHash == nil {
		metrics.AuthEvent(metrics.RefreshFail)
		return Session{}, apperr.Unauthorized(msgAccessDenied)
	}
	if !utils.VerifyToken(*u.RefreshTokenHash, presented) {
		if err := s.tokens.UpdateRefreshToken(ctx, nil, u.ID); err != nil {
			return Session{}, internal("clear replayed session", err)
		}
		s.log.Warn("refresh token reuse, session closed", "user_id", u.ID)
		metrics.AuthEvent(metrics.RefreshReuse)
		return Session{}, apperr.Unauthorized(msgAccessDenied)
	}

	sess, err := s.issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	metrics.AuthEvent(metrics.RefreshOK)
	return sess, nil
}

// Logout closes the session of userID.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	if err := s.tokens.UpdateRefreshToken(ctx, nil, userID); err != nil {
		return internal("logout", err)
	}
	metrics.AuthEvent(metrics.Logout)
	return nil
}

// Profile returns the public profile of userID.
func (s *SessionService) Profile(ctx context.Context, userID int64) (model.UserProfile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProfile{}, apperr.NotFound("Usuario no encontrado.")
		}
		return model.UserProfile{}, internal("profile", err)
	}
	return u.Profile(), nil
}

// ReissueForUser opens a new session from the current user row.  Used
// after the user's role or company changed so the new claims apply at once.
func (s *SessionService) ReissueForUser(ctx context.Context, userID int64) (Session, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperr.Unauthorized(msgAccessDenied)
		}
		return Session{}, internal("reissue lookup", err)
	}
	return s.issue(ctx, u)
}

// issue signs both tokens concurrently and stores the refresh verifier,
// replacing whatever session was open before.
func (s *SessionService) issue(ctx context.Context, u model.User) (Session, error) {
	p := utils.PayloadFor(u)

	var access, refresh string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		access, err = s.issuer.SignAccess(p)
		return err
	})
	g.Go(func() error {
		var err error
		refresh, err = s.issuer.SignRefresh(p)
		return err
	})
	if err := g.Wait(); err != nil {
		return Session{}, internal("sign tokens", err)
	}

	hash, err := utils.HashToken(refresh, s.cost)
	if err != nil {
		return Session{}, internal("hash refresh token", err)
	}
	if err := s.tokens.UpdateRefreshToken(ctx, &hash, u.ID); err != nil {
		return Session{}, internal("store refresh token", err)
	}
	return Session{Profile: u.Profile(), AccessToken: access, RefreshToken: refresh}, nil
}

// dummy returns the hash compared against when the email is unknown.  If
// the configured cost cannot be used it falls back to bcrypt's default so
// the compare never degrades to an instant return.
func (s *SessionService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := utils.HashPassword(dummyPassword, s.cost)
		if err != nil {
			s.log.Error("dummy hash at configured cost failed", "cost", s.cost, "err", err)
			h, err = utils.HashPassword(dummyPassword, bcrypt.DefaultCost)
		}
		if err != nil {
			s.log.Error("dummy hash failed, unknown emails are not timing safe", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// internal keeps classified errors as they are and wraps anything else as
// a 500.
func internal(op string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}
