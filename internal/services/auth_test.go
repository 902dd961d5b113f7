package services

import (
  "context"
  "errors"
  "testing"
  "time"
  "github.com/stakequest/stakequest-backend/internal/repos"
  "github.com/stakequest/stakequest-backend/internal/requestdata"
  "github.com/stakequest/stakequest-backend/internal/types"
)

func newAuthEnv(t *testing.T) AuthService {
  t.Helper()
  db := newTestDB(t)
  log := newTestLogger(t)
  userRepo := repos.NewUserRepo(db, log)
  userTokenRepo := repos.NewUserTokenRepo(db, log)
  return NewAuthService(db, log, userRepo, userTokenRepo, "test-secret", time.Hour, 24*time.Hour)
}

func registerTestUser(t *testing.T, as AuthService, email string) {
  t.Helper()
  user := types.User{
    Email:     email,
    FirstName: "Dana",
    LastName:  "Park",
    Password:  "hunter22",
  }
  if err := as.RegisterUser(context.Background(), &user); err != nil {
    t.Fatalf("RegisterUser: %v", err)
  }
}

func TestRegisterAndLogin(t *testing.T) {
  as := newAuthEnv(t)
  ctx := context.Background()
  registerTestUser(t, as, "dana@example.com")

  // Duplicate registration is rejected.
  dup := types.User{Email: "dana@example.com", FirstName: "D", LastName: "P", Password: "x1234567"}
  if err := as.RegisterUser(ctx, &dup); !errors.Is(err, types.ErrInvalidParameter) {
    t.Fatalf("want ErrInvalidParameter for duplicate email, got %v", err)
  }

  accessToken, refreshToken, err := as.LoginUser(ctx, "Dana@Example.com", "hunter22")
  if err != nil {
    t.Fatalf("LoginUser: %v", err)
  }
  if accessToken == "" || refreshToken == "" {
    t.Fatalf("expected non-empty token pair")
  }

  if _, _, err := as.LoginUser(ctx, "dana@example.com", "wrong"); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized for bad password, got %v", err)
  }
  if _, _, err := as.LoginUser(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized for unknown email, got %v", err)
  }
}

func TestSetContextFromToken(t *testing.T) {
  as := newAuthEnv(t)
  ctx := context.Background()
  registerTestUser(t, as, "dana@example.com")

  accessToken, _, err := as.LoginUser(ctx, "dana@example.com", "hunter22")
  if err != nil {
    t.Fatalf("LoginUser: %v", err)
  }

  authed, err := as.SetContextFromToken(ctx, accessToken)
  if err != nil {
    t.Fatalf("SetContextFromToken: %v", err)
  }
  rd := requestdata.GetRequestData(authed)
  if rd == nil {
    t.Fatalf("expected request data on authed context")
  }
  if rd.Role != types.RoleUser {
    t.Fatalf("role: want=%s got=%s", types.RoleUser, rd.Role)
  }

  if _, err := as.SetContextFromToken(ctx, "not-a-jwt"); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized for garbage token, got %v", err)
  }
}

func TestRefreshRotatesToken(t *testing.T) {
  as := newAuthEnv(t)
  ctx := context.Background()
  registerTestUser(t, as, "dana@example.com")

  _, refreshToken, err := as.LoginUser(ctx, "dana@example.com", "hunter22")
  if err != nil {
    t.Fatalf("LoginUser: %v", err)
  }

  _, rotated, err := as.RefreshUser(ctx, refreshToken)
  if err != nil {
    t.Fatalf("RefreshUser: %v", err)
  }
  if rotated == refreshToken {
    t.Fatalf("refresh token was not rotated")
  }

  // The consumed token is single-use.
  if _, _, err := as.RefreshUser(ctx, refreshToken); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized for replayed refresh token, got %v", err)
  }
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
  as := newAuthEnv(t)
  ctx := context.Background()
  registerTestUser(t, as, "dana@example.com")

  accessToken, refreshToken, err := as.LoginUser(ctx, "dana@example.com", "hunter22")
  if err != nil {
    t.Fatalf("LoginUser: %v", err)
  }
  authed, err := as.SetContextFromToken(ctx, accessToken)
  if err != nil {
    t.Fatalf("SetContextFromToken: %v", err)
  }

  if err := as.LogoutUser(authed); err != nil {
    t.Fatalf("LogoutUser: %v", err)
  }
  if _, _, err := as.RefreshUser(ctx, refreshToken); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized after logout, got %v", err)
  }

  if err := as.LogoutUser(ctx); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized without caller identity, got %v", err)
  }
}
