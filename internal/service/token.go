package service

import (
	"context"
	"fmt"
	"time"

	"drink-ledger/internal/blacklist"
	"drink-ledger/internal/util"
)

const refreshNonceBytes = 16

// TokenService issues, validates and revokes access and refresh tokens.
type TokenService struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Blacklist  blacklist.Store
}

func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration, store blacklist.Store) *TokenService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		Secret:     secret,
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Blacklist:  store,
	}
}

func (s *TokenService) GenerateAccessToken(userID uint) (string, error) {
	return util.GenerateToken(s.Secret, userID, util.TokenOptions{Issuer: s.Issuer, Type: util.TokenTypeAccess, TTL: s.AccessTTL})
}

func (s *TokenService) GenerateRefreshToken(userID uint) (string, error) {
	nonce, err := util.RandomHex(refreshNonceBytes)
	if err != nil {
		return "", err
	}
	return util.GenerateToken(s.Secret, userID, util.TokenOptions{
		Issuer: s.Issuer,
		Type:   util.TokenTypeRefresh,
		TTL:    s.RefreshTTL,
		Nonce:  nonce,
	})
}

// UserIDFromToken verifies token and returns the user it was issued to.
// The token must be of type typ, so a refresh token cannot stand in for an
// access token or the other way round.
func (s *TokenService) UserIDFromToken(ctx context.Context, token string, typ util.TokenType) (uint, error) {
	revoked, err := s.Blacklist.Exists(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return 0, ErrTokenBlacklisted
	}

	claims, err := util.ParseToken(s.Secret, token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	if claims.Type != typ {
		return 0, fmt.Errorf("%w: want %s token, got %q", ErrInvalidToken, typ, claims.Type)
	}
	return claims.UserID, nil
}

// AddToBlacklist revokes token for the rest of its lifetime. The signature
// is not checked; tokens that already expired are ignored.
func (s *TokenService) AddToBlacklist(ctx context.Context, token string) error {
	exp, err := util.TokenExpiry(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	if err := s.Blacklist.Add(ctx, token, ttl); err != nil {
		return fmt.Errorf("add to blacklist: %w", err)
	}
	return nil
}
