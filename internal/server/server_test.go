package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/openbar/tapflow/internal/billing/domain"
	billingservice "github.com/openbar/tapflow/internal/billing/service"
	"github.com/openbar/tapflow/internal/clock"
	"github.com/openbar/tapflow/internal/config"
	dispenserrepo "github.com/openbar/tapflow/internal/dispenser/repository"
	dispenserservice "github.com/openbar/tapflow/internal/dispenser/service"
	"github.com/openbar/tapflow/internal/migration"
	taprepo "github.com/openbar/tapflow/internal/tap/repository"
	tapservice "github.com/openbar/tapflow/internal/tap/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testDBCounter int

// newTestStack wires the real services over an in-memory database, bypassing
// the fx graph and the observability middleware.
func newTestStack(t *testing.T) (*gin.Engine, *clock.FakeClock) {
	t.Helper()

	testDBCounter++
	dsn := fmt.Sprintf("file:server_e2e_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2022, 1, 1, 2, 0, 0, 0, time.UTC))
	pricing := billingdomain.DefaultPricing()
	dispenserRepo := dispenserrepo.Provide()
	tapRepo := taprepo.Provide()

	dispenserSvc := dispenserservice.New(dispenserservice.Params{
		DB:   db,
		Log:  log,
		Repo: dispenserRepo,
	})
	tapSvc := tapservice.New(tapservice.Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Clock:         fake,
		Repo:          tapRepo,
		DispenserRepo: dispenserRepo,
		Pricing:       pricing,
	})
	billingSvc := billingservice.New(billingservice.Params{
		DB:            db,
		Log:           log,
		Clock:         fake,
		DispenserRepo: dispenserRepo,
		TapRepo:       tapRepo,
		Pricing:       pricing,
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := NewServer(Params{
		Engine:       r,
		Config:       config.Config{},
		DB:           db,
		Log:          log,
		DispenserSvc: dispenserSvc,
		TapSvc:       tapSvc,
		BillingSvc:   billingSvc,
	})
	srv.RegisterRoutes()
	return r, fake
}

func TestDispenserLifecycleFlow(t *testing.T) {
	r, fake := newTestStack(t)

	// Register.
	w := doJSON(t, r, http.MethodPost, "/dispensers", `{"flowVolume":0.064}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		DispenserID string `json:"dispenser_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.DispenserID)
	statusPath := "/dispensers/" + created.DispenserID + "/status"

	// Open.
	w = doJSON(t, r, http.MethodPut, statusPath, `{"status":"open"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var opened struct {
		Status    string `json:"status"`
		StartTime string `json:"start_time"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.Equal(t, "open", opened.Status)
	assert.Equal(t, "2022-01-01T02:00:00.000Z", opened.StartTime)

	// Open again is a conflict.
	w = doJSON(t, r, http.MethodPut, statusPath, `{"status":"open"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"conflict"`)

	// Close after 50 seconds.
	fake.Advance(50 * time.Second)
	w = doJSON(t, r, http.MethodPut, statusPath, `{"status":"close"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var closed struct {
		Status  string `json:"status"`
		EndTime string `json:"end_time"`
		Revenue string `json:"revenue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.Equal(t, "closed", closed.Status)
	assert.Equal(t, "2022-01-01T02:00:50.000Z", closed.EndTime)
	assert.Equal(t, "39.20", closed.Revenue)

	// Close again is a conflict.
	w = doJSON(t, r, http.MethodPut, statusPath, `{"status":"close"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no open tap event found")

	// Summary.
	w = doJSON(t, r, http.MethodGet, "/dispensers/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []struct {
		DispenserID   string `json:"dispenser_id"`
		UsageCount    int    `json:"usage_count"`
		TotalDuration string `json:"total_duration"`
		TotalRevenue  string `json:"total_revenue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, created.DispenserID, summaries[0].DispenserID)
	assert.Equal(t, 1, summaries[0].UsageCount)
	assert.Equal(t, "50.00 seconds", summaries[0].TotalDuration)
	assert.Equal(t, "$39.20", summaries[0].TotalRevenue)

	// Spending.
	w = doJSON(t, r, http.MethodGet, "/dispensers/"+created.DispenserID+"/spending", "")
	require.Equal(t, http.StatusOK, w.Code)
	var spending struct {
		Amount string `json:"amount"`
		Usages []struct {
			OpenedAt   *string `json:"opened_at"`
			ClosedAt   *string `json:"closed_at"`
			FlowVolume float64 `json:"flow_volume"`
			TotalSpent string  `json:"total_spent"`
		} `json:"usages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spending))
	assert.Equal(t, "$39.20", spending.Amount)
	require.Len(t, spending.Usages, 1)
	assert.Equal(t, "39.20", spending.Usages[0].TotalSpent)
	assert.Equal(t, 0.064, spending.Usages[0].FlowVolume)
	require.NotNil(t, spending.Usages[0].ClosedAt)
}

func TestLifecycleUnknownDispenser(t *testing.T) {
	r, _ := newTestStack(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodPut, "/dispensers/missing/status", `{"status":"open"}`},
		{http.MethodPut, "/dispensers/missing/status", `{"status":"close"}`},
		{http.MethodGet, "/dispensers/missing/spending", ""},
	} {
		w := doJSON(t, r, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.Contains(t, w.Body.String(), "dispenser not found")
	}
}
