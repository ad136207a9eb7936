package services

import (
	"testing"

	"designhub_backend/internal/models"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/testutil"
	"designhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.CategoryService

	created, err := svc.CreateCategory(env.ctx, env.db, env.adminP(), &dto.CategoryRequest{Name: "Branding"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = svc.CreateCategory(env.ctx, env.db, env.adminP(), &dto.CategoryRequest{Name: "branding"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyExists), "names are unique case-insensitively")

	updated, err := svc.UpdateCategory(env.ctx, env.db, env.adminP(), created.ID, &dto.CategoryRequest{Name: "Brand identity"})
	require.NoError(t, err)
	assert.Equal(t, "Brand identity", updated.Name)

	list, err := svc.ListCategories(env.ctx, env.db)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.DeleteCategory(env.ctx, env.db, env.adminP(), created.ID))
	err = svc.DeleteCategory(env.ctx, env.db, env.adminP(), created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCategory_AdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.CategoryService

	for _, actor := range []*models.User{env.client, env.designer} {
		_, err := svc.CreateCategory(env.ctx, env.db, testutil.Principal(actor), &dto.CategoryRequest{Name: "Illustration"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "role=%s", actor.Role)
		assert.True(t, apperrors.HasCode(svc.DeleteCategory(env.ctx, env.db, testutil.Principal(actor), env.category.ID), apperrors.CodeForbidden))
	}

	_, err := svc.CreateCategory(env.ctx, env.db, env.adminP(), &dto.CategoryRequest{Name: "   "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestDeleteCategory_InUse(t *testing.T) {
	env := newTestEnv(t, nil)
	testutil.CreateService(t, env.db, env.client, env.category)

	err := env.sc.CategoryService.DeleteCategory(env.ctx, env.db, env.adminP(), env.category.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, map[string]int64{"services": 1}, appErr.Details)

	var count int64
	require.NoError(t, env.db.Model(&models.Category{}).Where("id = ?", env.category.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
