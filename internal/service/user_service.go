package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository"
)

const minPasswordLen = 8

// UserService регистрация и проверка учётных данных
type UserService struct {
	users repository.UserRepository
	cost  int
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost}
}

// WithCost задаёт стоимость bcrypt (в тестах bcrypt.MinCost)
func (s *UserService) WithCost(cost int) *UserService {
	s.cost = cost
	return s
}

// Register создаёт обычного пользователя; занятое имя даёт ErrConflict
func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.create(ctx, username, email, password, false)
}

func (s *UserService) create(ctx context.Context, username, email, password string, admin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidInput
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      admin,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate проверяет пароль; неизвестное имя и неверный пароль неразличимы
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin создаёт администратора при первом запуске, существующего не трогает
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	u, err = s.create(ctx, username, email, password, true)
	if err != nil {
		return nil, err
	}
	logging.FromCtx(ctx).Info("admin user seeded", "username", u.Username)
	return u, nil
}
