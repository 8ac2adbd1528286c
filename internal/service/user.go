package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drink-ledger/internal/models"
	"drink-ledger/internal/util"

	"gorm.io/gorm"
)

// TokenPair is returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService handles accounts. Deleted users keep their row with
// IsDeleted set and are invisible to every lookup.
type UserService struct {
	DB         *gorm.DB
	Tokens     *TokenService
	BcryptCost int
}

func NewUserService(db *gorm.DB, tokens *TokenService, bcryptCost int) *UserService {
	return &UserService{DB: db, Tokens: tokens, BcryptCost: bcryptCost}
}

func (s *UserService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	db := s.DB.WithContext(ctx)

	// 用户名全局唯一，已注销的用户名也不能再用
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	hash, err := util.HashPassword(password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{Username: username, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Login checks the credentials and issues a fresh token pair.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Where("username = ? AND is_deleted = ?", strings.TrimSpace(username), false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if !util.CheckPassword(password, user.PasswordHash) {
		return nil, ErrAuthenticationFailed
	}
	return s.issue(user.ID)
}

// Refresh trades a valid refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.Tokens.UserIDFromToken(ctx, refreshToken, util.TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.Tokens.GenerateAccessToken(userID)
}

// Logout revokes both tokens.
func (s *UserService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.Tokens.AddToBlacklist(ctx, accessToken); err != nil {
		return err
	}
	return s.Tokens.AddToBlacklist(ctx, refreshToken)
}

func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	return findActiveUser(s.DB.WithContext(ctx), userID)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.DB.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return users, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !util.CheckPassword(oldPassword, user.PasswordHash) {
		return ErrAuthenticationFailed
	}

	hash, err := util.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete closes the account: both tokens are revoked and the user is
// soft-deleted. Records and attendees are kept.
func (s *UserService) Delete(ctx context.Context, userID uint, accessToken, refreshToken string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Logout(ctx, accessToken, refreshToken); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("is_deleted", true).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) issue(userID uint) (*TokenPair, error) {
	access, err := s.Tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.Tokens.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func findActiveUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
