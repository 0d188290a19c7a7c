package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickqr/internal/model"
	"quickqr/internal/repo"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService инкапсулирует регистрацию и аутентификацию
// (локальный пароль или Google id_token).
type UserService struct {
	repo     repo.UserRepository
	verifier GoogleVerifier
}

func NewUserService(r repo.UserRepository, v GoogleVerifier) *UserService {
	return &UserService{repo: r, verifier: v}
}

// Register создаёт локального пользователя. Занятый email — ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, &model.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Password:     string(hash),
		Provider:     model.ProviderLocal,
		Role:         model.RoleUser,
		ActiveStatus: true,
	})
	if err != nil {
		// Конкурентная регистрация того же email обходит предварительную
		// проверку и упирается в уникальный индекс
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login проверяет пароль. Неактивные пользователи не аутентифицируются.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Password == "" {
		// Google-пользователь без локального пароля
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.ActiveStatus {
		return nil, ErrInactiveUser
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	_ = s.repo.UpdateUser(ctx, user)

	return user, nil
}

// GoogleLogin проверяет id_token через tokeninfo и создаёт/обновляет пользователя.
func (s *UserService) GoogleLogin(ctx context.Context, idToken string) (*model.User, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, "invalid google token")
	}

	now := time.Now().UTC()

	user, err := s.repo.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return s.repo.CreateUser(ctx, &model.User{
			UserID:       uuid.NewString(),
			Email:        claims.Email,
			FirstName:    claims.GivenName,
			LastName:     claims.FamilyName,
			Password:     "", // пароль отсутствует у Google-пользователей
			Provider:     model.ProviderGoogle,
			Role:         model.RoleUser,
			ActiveStatus: true,
			LastLoginAt:  &now,
		})
	}

	// Обновляем имя, если оно было пустым, и реактивируем учётку
	if user.FirstName == "" && claims.GivenName != "" {
		user.FirstName = claims.GivenName
	}
	if user.LastName == "" && claims.FamilyName != "" {
		user.LastName = claims.FamilyName
	}
	user.ActiveStatus = true
	user.LastLoginAt = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
