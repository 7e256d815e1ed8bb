package services

import (
	"errors"
	"strings"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/auth"
	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserService struct {
	r  repo.Users
	tm *auth.TokenManager
}

func NewUserService(r repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{r: r, tm: tm}
}

func (s *UserService) Register(name, email, password, city string) (models.User, error) {
	u := models.User{Name: strings.TrimSpace(name), Email: strings.TrimSpace(strings.ToLower(email)), City: strings.TrimSpace(city)}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if len(password) < 6 {
		return models.User{}, errors.New("password too short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.r.Create(u.Name, u.Email, hash, u.City)
}

func (s *UserService) Login(email, password string) (models.User, TokenPair, error) {
	u, err := s.r.GetByEmail(strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return models.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return models.User{}, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.tokenPair(u.ID)
	return u, pair, err
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *UserService) Refresh(refreshToken string) (TokenPair, error) {
	claims, isRefresh, err := s.tm.Parse(refreshToken)
	if err != nil || !isRefresh {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.tokenPair(claims.UserID)
}

func (s *UserService) Get(id string) (models.User, error) { return s.r.GetByID(id) }

func (s *UserService) tokenPair(userID string) (TokenPair, error) {
	access, refresh, exp, err := s.tm.GeneratePair(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}
