package service

import (
	"context"
	"testing"
	"time"

	"run4recht/internal/auth"
	"run4recht/internal/models"
)

func TestAuthService_Login(t *testing.T) {
	store := newFixture(t, time.Now()).store
	hash, _ := auth.HashPassword("geheim")
	emp := store.AddEmployee(models.Employee{FirstName: "Dora", Email: "dora@example.org", PasswordHash: hash, Role: models.RoleAdmin})
	svc := &AuthService{Repo: store, JWT: auth.JWT{Secret: []byte("k"), TokenTTL: time.Hour}}

	res, err := svc.Login(context.Background(), "DORA@example.org", "geheim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	claims, err := svc.JWT.Verify(res.Token)
	if err != nil || claims.EmployeeID != emp.ID || claims.Role != models.RoleAdmin {
		t.Fatalf("claims=%+v err=%v", claims, err)
	}
	if !res.Profile.Settings.Notifications {
		t.Fatalf("default settings not applied: %+v", res.Profile.Settings)
	}
	if _, err := svc.Login(context.Background(), "dora@example.org", "falsch"); err != auth.ErrInvalidCredentials {
		t.Fatalf("err=%v want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.org", "x"); err != auth.ErrInvalidCredentials {
		t.Fatalf("err=%v want ErrInvalidCredentials", err)
	}
}
