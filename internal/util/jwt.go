package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType 区分 access token 与 refresh token
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims 自定义 JWT 负载
// Nonce 只在 refresh token 中出现，保证同一秒签发的两个 refresh token 不同
type Claims struct {
	UserID uint      `json:"user_id"`
	Type   TokenType `json:"typ,omitempty"`
	Nonce  string    `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}

// TokenOptions 控制签发参数
type TokenOptions struct {
	Issuer string
	Type   TokenType
	TTL    time.Duration
	Nonce  string
	Now    time.Time
}

// GenerateToken 生成用户的 JWT
func GenerateToken(secret string, userID uint, opts TokenOptions) (string, error) {
	if opts.TTL == 0 {
		opts.TTL = time.Hour
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	claims := &Claims{
		UserID: userID,
		Type:   opts.Type,
		Nonce:  opts.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    opts.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(opts.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 解析并验证 JWT（签名、算法、过期时间），返回 Claims
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ErrNoExpiry is returned by TokenExpiry for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// TokenExpiry decodes the exp claim without verifying the signature.
func TokenExpiry(tokenStr string) (time.Time, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
