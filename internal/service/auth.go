package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"run4recht/internal/auth"
	"run4recht/internal/repository"
)

type LoginResult struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	Profile   Profile `json:"profil"`
}

type AuthService struct {
	Repo   repository.Repository
	JWT    auth.JWT
	Logger *zap.Logger
}

// Login checks the password and issues a bearer token. Unknown e-mail and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	emp, err := s.Repo.GetEmployeeByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return LoginResult{}, err
	}
	if emp == nil {
		return LoginResult{}, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(emp.PasswordHash, password); err != nil {
		if s.Logger != nil {
			s.Logger.Info("login rejected", zap.Uint64("employee", emp.ID))
		}
		return LoginResult{}, err
	}
	tok, exp, err := s.JWT.Sign(auth.Claims{
		EmployeeID:   emp.ID,
		DepartmentID: emp.DepartmentID,
		Role:         emp.Role,
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     tok,
		ExpiresAt: exp.UTC().Format(time.RFC3339),
		Profile:   profileOf(*emp),
	}, nil
}
