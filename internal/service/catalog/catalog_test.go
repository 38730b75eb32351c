package catalog

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

func newTestService(t *testing.T) (Service, *repo.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := repo.NewClient(docstore.NewRedisStore(rdb, "catalog"))
	svc, err := New(db)
	require.NoError(t, err)
	return svc, db
}

func TestService_LoadFromStore(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	require.NoError(t, db.PutTreatment(ctx, repo.Treatment{ID: "t1", Name: "Consultation", Category: "General"}))
	require.NoError(t, db.PutDoctor(ctx, repo.Doctor{ID: "doc1", FirstName: "Sara", LastName: "Ahmadi"}))
	require.NoError(t, db.PutServiceOffering(ctx, repo.ServiceOffering{DoctorID: "doc1", TreatmentID: "t1", ProvidesService: true, Price: 2000}))
	require.NoError(t, db.PutServiceOffering(ctx, repo.ServiceOffering{DoctorID: "doc7", TreatmentID: "t1", ProvidesService: true, Price: 2400}))

	c, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, c.Static)
	require.Len(t, c.Services, 1)
	assert.Equal(t, 2000.0, *c.Services[0].Price)

	refs, err := svc.EligibleDoctors(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, DoctorKnown, refs[0].Kind)
	assert.Equal(t, DoctorPending, refs[1].Kind)
	assert.Equal(t, "doc7", refs[1].ID)

	_, err = c.Doctor("t1", "doc9")
	assert.ErrorIs(t, err, ErrDoctorNotEligible)

	_, err = svc.GetService(ctx, "missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestService_FallsBackToStaticCatalog(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	// a treatment nobody offers leaves the merged catalog empty
	require.NoError(t, db.PutTreatment(ctx, repo.Treatment{ID: "t1", Name: "Consultation"}))

	c, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.Static)
	require.NotEmpty(t, c.Services)
	for _, s := range c.Services {
		assert.ElementsMatch(t, []string{"static-dr-1", "static-dr-2"}, s.DoctorIDs)
	}

	refs, err := c.EligibleDoctors(c.Services[0].ID)
	require.NoError(t, err)
	assert.Equal(t, DoctorKnown, refs[0].Kind)
}

func TestService_StaticCatalogUsesKnownDoctors(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	require.NoError(t, db.PutDoctor(ctx, repo.Doctor{ID: "doc1", FirstName: "Sara"}))

	c, err := svc.Load(ctx)
	require.NoError(t, err)
	require.True(t, c.Static)
	assert.Equal(t, []string{"doc1"}, c.Services[0].DoctorIDs)
}
