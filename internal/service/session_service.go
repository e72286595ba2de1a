package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/studyplan-backend/internal/model"
	"github.com/stemsi/studyplan-backend/internal/repository"
)

// TokenTypePlanSession marks tokens issued for planning sessions.
const TokenTypePlanSession = "plan_session"

// Token errors.
var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// Claims carries the session identity. The JWT ID is the session ID.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// SessionService creates planning sessions and the tokens that address them.
type SessionService struct {
	store  repository.SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(store repository.SessionStore, secret string, ttl time.Duration) *SessionService {
	return &SessionService{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssuedSession is returned when a new session starts.
type IssuedSession struct {
	Token   string             `json:"token"`
	Session *model.PlanSession `json:"-"`
}

// Start creates a fresh session in the store and signs a token for it.
func (s *SessionService) Start(ctx context.Context) (*IssuedSession, error) {
	now := s.now()
	sess := &model.PlanSession{
		ID:        uuid.New().String(),
		State:     model.NewPlanState(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.sign(sess, now)
	if err != nil {
		_ = s.store.Delete(ctx, sess.ID)
		return nil, err
	}
	return &IssuedSession{Token: token, Session: sess}, nil
}

func (s *SessionService) sign(sess *model.PlanSession, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		TokenType: TokenTypePlanSession,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a session token.
func (s *SessionService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != TokenTypePlanSession || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
