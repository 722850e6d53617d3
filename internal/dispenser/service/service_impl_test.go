package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/glebarez/sqlite"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	"github.com/openbar/tapflow/internal/dispenser/repository"
	"github.com/openbar/tapflow/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testDBCounter int

func setupService(t *testing.T) dispenserdomain.Service {
	t.Helper()

	testDBCounter++
	dsn := fmt.Sprintf("file:dispenser_svc_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	return New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
}

func floatPtr(v float64) *float64 { return &v }

func TestRegisterValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dispenserdomain.RegisterRequest
	}{
		{"missing", dispenserdomain.RegisterRequest{}},
		{"zero", dispenserdomain.RegisterRequest{FlowVolume: floatPtr(0)}},
		{"negative", dispenserdomain.RegisterRequest{FlowVolume: floatPtr(-0.5)}},
		{"nan", dispenserdomain.RegisterRequest{FlowVolume: floatPtr(math.NaN())}},
		{"inf", dispenserdomain.RegisterRequest{FlowVolume: floatPtr(math.Inf(1))}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			assert.ErrorIs(t, err, dispenserdomain.ErrInvalidFlowVolume)
		})
	}
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, dispenserdomain.RegisterRequest{FlowVolume: floatPtr(0.064)})
	require.NoError(t, err)
	second, err := svc.Register(ctx, dispenserdomain.RegisterRequest{FlowVolume: floatPtr(0.064)})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)

	found, err := svc.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.064, found.FlowVolume)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := setupService(t)

	_, err := svc.GetByID(context.Background(), "no-such-dispenser")
	assert.ErrorIs(t, err, dispenserdomain.ErrNotFound)
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	var ids []string
	for _, flow := range []float64{0.064, 0.1, 0.25} {
		resp, err := svc.Register(ctx, dispenserdomain.RegisterRequest{FlowVolume: floatPtr(flow)})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i := range ids {
		assert.Equal(t, ids[i], listed[i].ID)
	}
}
