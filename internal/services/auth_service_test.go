package services

import (
	"testing"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/models"
	"designhub_backend/internal/services/dto"
	"designhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.AuthService

	session, err := svc.Register(env.ctx, env.db, &dto.RegisterRequest{
		Name: "Ana Souza", Email: "Ana@Example.com", Password: "s3cret-pass", Role: models.UserRoleDesigner,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.Equal(t, models.UserRoleDesigner, session.User.Role)

	claims, err := env.tokens.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	login, err := svc.Login(env.ctx, env.db, &dto.LoginRequest{Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(env.ctx, env.db, &dto.LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	assert.Equal(t, apperrors.ErrInvalidCredentials, err)
	_, err = svc.Login(env.ctx, env.db, &dto.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.Equal(t, apperrors.ErrInvalidCredentials, err)
}

func TestRegister_Rules(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.AuthService

	_, err := svc.Register(env.ctx, env.db, &dto.RegisterRequest{
		Name: "Dup", Email: env.client.Email, Password: "s3cret-pass", Role: models.UserRoleClient,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyExists))

	_, err = svc.Register(env.ctx, env.db, &dto.RegisterRequest{
		Name: "Root", Email: "root@example.com", Password: "s3cret-pass", Role: models.UserRoleAdmin,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "admins cannot self-register")

	_, err = svc.Register(env.ctx, env.db, &dto.RegisterRequest{
		Name: "Short", Email: "short@example.com", Password: "short", Role: models.UserRoleClient,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.AuthService

	// администратор уже есть в окружении
	require.NoError(t, svc.EnsureAdmin(env.ctx, env.db, "", "second@example.com", "s3cret-pass"))
	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, env.db.Where("role = ?", models.UserRoleAdmin).Delete(&models.User{}).Error)
	require.NoError(t, svc.EnsureAdmin(env.ctx, env.db, "", "boss@example.com", "s3cret-pass"))
	_, err := svc.Login(env.ctx, env.db, &dto.LoginRequest{Email: "boss@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	assert.NoError(t, svc.EnsureAdmin(env.ctx, env.db, "", "", ""))
}

func TestGetCurrentUser(t *testing.T) {
	env := newTestEnv(t, nil)

	me, err := env.sc.AuthService.GetCurrentUser(env.ctx, env.db, env.clientP())
	require.NoError(t, err)
	assert.Equal(t, env.client.ID, me.ID)

	_, err = env.sc.AuthService.GetCurrentUser(env.ctx, env.db, auth.Principal{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
