package services

import (
	"context"
	"testing"
	"time"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/infrastructure/payments"
	"designhub_backend/internal/models"
	"designhub_backend/internal/storage"
	"designhub_backend/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	ctx    context.Context
	db     *gorm.DB
	store  storage.Storage
	sc     *ServiceContainer
	tokens *auth.TokenManager

	client   *models.User
	designer *models.User
	admin    *models.User
	category *models.Category
}

func newTestEnv(t *testing.T, gateway payments.Gateway) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/api/v1/files"})
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	sc := NewServiceContainer(Dependencies{
		Tokens:   tokens,
		Storage:  store,
		Gateway:  gateway,
		Currency: "BRL",
	})

	return &testEnv{
		ctx:      context.Background(),
		db:       db,
		store:    store,
		sc:       sc,
		tokens:   tokens,
		client:   testutil.CreateUser(t, db, models.UserRoleClient),
		designer: testutil.CreateUser(t, db, models.UserRoleDesigner),
		admin:    testutil.CreateUser(t, db, models.UserRoleAdmin),
		category: testutil.CreateCategory(t, db, "Logo"),
	}
}

func (e *testEnv) clientP() auth.Principal   { return testutil.Principal(e.client) }
func (e *testEnv) designerP() auth.Principal { return testutil.Principal(e.designer) }
func (e *testEnv) adminP() auth.Principal    { return testutil.Principal(e.admin) }

// orderIn - заявка клиента и заказ дизайнера в нужном статусе
func (e *testEnv) orderIn(t *testing.T, status models.OrderStatus) *models.Order {
	t.Helper()
	svc := testutil.CreateService(t, e.db, e.client, e.category)
	return testutil.CreateOrder(t, e.db, svc, e.designer, status)
}

func (e *testEnv) reloadOrder(t *testing.T, id string) *models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, e.db.First(&o, "id = ?", id).Error)
	return &o
}
