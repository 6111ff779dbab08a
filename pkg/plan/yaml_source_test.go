package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

const catalogYAML = `
plans:
  - type: free
    name: Free Trial
    trial_days: 7
    limits:
      employees: 2
      visitors: 10
      appointments: 10
      spot_passes: 5
  - type: monthly
    name: Monthly
    public: true
    price:
      amount: 2900
      currency: USD
    tax_percent: 18
    limits:
      employees: 10
      visitors: -1
      appointments: 100
      spot_passes: 50
    modules:
      - messaging
      - visitor_invite
addons:
  - id: appointments_25
    name: 25 extra appointments
    resource: appointments
    quantity: 25
    price:
      amount: 500
      currency: USD
`

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	src := plan.NewYAMLSource(path)

	plans, err := src.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)

	monthly := plans[plan.TypeMonthly]
	assert.Equal(t, "Monthly", monthly.Name)
	assert.Equal(t, int64(2900), monthly.Price.Amount)
	assert.Equal(t, 18.0, monthly.TaxPercent)
	assert.Equal(t, plan.Unlimited, monthly.Limit(plan.ResourceVisitors))
	assert.Equal(t, int64(100), monthly.Limit(plan.ResourceAppointments))
	assert.True(t, monthly.HasModule(plan.ModuleMessaging))
	assert.True(t, monthly.Public)

	free := plans[plan.TypeFree]
	assert.Equal(t, 7, free.TrialDays)

	addons, err := src.Addons(context.Background())
	require.NoError(t, err)
	require.Len(t, addons, 1)
	assert.Equal(t, plan.ResourceAppointments, addons["appointments_25"].Resource)
	assert.Equal(t, int64(25), addons["appointments_25"].Quantity)

	require.NoError(t, plan.Validate(plans, addons))
}

func TestYAMLSourceMissingFile(t *testing.T) {
	t.Parallel()

	src := plan.NewYAMLSource(filepath.Join(t.TempDir(), "missing.yml"))
	_, err := src.Plans(context.Background())
	require.ErrorIs(t, err, plan.ErrFailedToLoadCatalog)
}
