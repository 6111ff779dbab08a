package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

// Collection names of the resource documents the counters aggregate over.
// Resources are always written under the owning tenant's id, so counting is
// a single tenant-scoped filter regardless of which employee created them.
const (
	employeesCollection    = "users"
	visitsCollection       = "visits"
	appointmentsCollection = "appointments"
	spotPassesCollection   = "spot_passes"
)

// Counters builds the per-resource usage counters over the given database.
// Employees are a seat count and ignore the window; flow resources count
// documents created inside the current quota window.
func Counters(db *mongo.Database) map[plan.Resource]subscription.CounterFunc {
	return map[plan.Resource]subscription.CounterFunc{
		plan.ResourceEmployees:    seatCounter(db.Collection(employeesCollection)),
		plan.ResourceVisitors:     flowCounter(db.Collection(visitsCollection)),
		plan.ResourceAppointments: appointmentCounter(db.Collection(appointmentsCollection)),
		plan.ResourceSpotPasses:   flowCounter(db.Collection(spotPassesCollection)),
	}
}

// seatCounter counts standing capacity: active, non-deleted documents for
// the tenant, regardless of when they were created.
func seatCounter(coll *mongo.Collection) subscription.CounterFunc {
	return func(ctx context.Context, tenantID uuid.UUID, _ *subscription.Window) (int64, error) {
		return coll.CountDocuments(ctx, bson.M{
			"tenant_id":  tenantID.String(),
			"is_active":  true,
			"deleted_at": nil,
		})
	}
}

// appointmentCounter counts appointments booked under the tenant plus the
// legacy rows that carry only the creating employee's owner reference in
// created_for.
func appointmentCounter(coll *mongo.Collection) subscription.CounterFunc {
	return func(ctx context.Context, tenantID uuid.UUID, win *subscription.Window) (int64, error) {
		if win == nil {
			return 0, errors.New("billing: window is required for flow resources")
		}
		return coll.CountDocuments(ctx, bson.M{
			"$or": bson.A{
				bson.M{"tenant_id": tenantID.String()},
				bson.M{"created_for": tenantID.String()},
			},
			"created_at": bson.M{
				"$gte": win.Start,
				"$lte": win.End,
			},
		})
	}
}

// flowCounter counts documents created inside the quota window.
func flowCounter(coll *mongo.Collection) subscription.CounterFunc {
	return func(ctx context.Context, tenantID uuid.UUID, win *subscription.Window) (int64, error) {
		if win == nil {
			return 0, errors.New("billing: window is required for flow resources")
		}
		return coll.CountDocuments(ctx, bson.M{
			"tenant_id": tenantID.String(),
			"created_at": bson.M{
				"$gte": win.Start,
				"$lte": win.End,
			},
		})
	}
}
