package service

import (
	"context"
	"testing"

	"gestock/internal/config"
	"gestock/internal/dto"
	"gestock/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAuthSvc() (AuthService, *stubUserRepo) {
	users := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:          "unit-test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
	return NewAuthService(users, cfg), users
}

func createTestUser(t *testing.T, svc AuthService, username, password, role string) dto.UserResponse {
	t.Helper()
	resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: username,
		Password: password,
		FullName: "Utilisateur Test",
		Role:     role,
	})
	require.NoError(t, err)
	return *resp
}

func TestLogin(t *testing.T) {
	svc, _ := buildAuthSvc()
	createTestUser(t, svc, "marie", "motdepasse123", model.RoleCommercial)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "marie",
		Password: "motdepasse123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "marie", resp.User.Username)
	assert.Equal(t, model.RoleCommercial, resp.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := buildAuthSvc()
	createTestUser(t, svc, "marie", "motdepasse123", model.RoleCommercial)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "marie",
		Password: "mauvais",
	})
	require.EqualError(t, err, "identifiants invalides")

	// Unknown user gets the same message: no username probing
	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Username: "inconnu",
		Password: "motdepasse123",
	})
	require.EqualError(t, err, "identifiants invalides")
}

func TestLogin_DeactivatedUser(t *testing.T) {
	svc, users := buildAuthSvc()
	created := createTestUser(t, svc, "paul", "motdepasse123", model.RoleAdmin)

	uid := mustFindUserID(users, "paul")
	require.Equal(t, created.ID, uid.String())
	require.NoError(t, svc.DeactivateUser(context.Background(), uid))

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "paul",
		Password: "motdepasse123",
	})
	require.EqualError(t, err, "identifiants invalides")

	require.NoError(t, svc.ReactivateUser(context.Background(), uid))
	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Username: "paul",
		Password: "motdepasse123",
	})
	require.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	svc, _ := buildAuthSvc()
	createTestUser(t, svc, "marie", "motdepasse123", model.RoleCommercial)

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "marie",
		Password: "motdepasse123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "marie", refreshed.User.Username)
}

func TestRefresh_InvalidToken(t *testing.T) {
	svc, _ := buildAuthSvc()

	_, err := svc.Refresh(context.Background(), "pas-un-jwt")
	require.Error(t, err)
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	svc, users := buildAuthSvc()
	createTestUser(t, svc, "paul", "motdepasse123", model.RoleAdmin)

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "paul",
		Password: "motdepasse123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(context.Background(), mustFindUserID(users, "paul")))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
}

func TestCreateUser_HashesPassword(t *testing.T) {
	svc, users := buildAuthSvc()
	createTestUser(t, svc, "marie", "motdepasse123", model.RoleCommercial)

	stored := users.users[mustFindUserID(users, "marie")]
	assert.NotEqual(t, "motdepasse123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.True(t, stored.Active)
}

func TestUpdateUser(t *testing.T) {
	svc, users := buildAuthSvc()
	createTestUser(t, svc, "marie", "motdepasse123", model.RoleCommercial)
	uid := mustFindUserID(users, "marie")

	resp, err := svc.UpdateUser(context.Background(), uid, dto.UpdateUserRequest{
		FullName: "Marie Dupont",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Marie Dupont", resp.FullName)
	assert.Equal(t, model.RoleAdmin, resp.Role)

	// Old password still works when the update names no new one
	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Username: "marie",
		Password: "motdepasse123",
	})
	require.NoError(t, err)

	_, err = svc.UpdateUser(context.Background(), uid, dto.UpdateUserRequest{Password: "nouveaumdp123"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Username: "marie",
		Password: "nouveaumdp123",
	})
	require.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	svc, users := buildAuthSvc()
	createTestUser(t, svc, "marie", "motdepasse123", model.RoleCommercial)
	createTestUser(t, svc, "paul", "motdepasse123", model.RoleAdmin)
	require.NoError(t, svc.DeactivateUser(context.Background(), mustFindUserID(users, "paul")))

	active, err := svc.ListUsers(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListUsers(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func mustFindUserID(r *stubUserRepo, username string) uuid.UUID {
	for _, u := range r.users {
		if u.Username == username {
			return u.ID
		}
	}
	return uuid.Nil
}
