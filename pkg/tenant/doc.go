// Package tenant resolves acting users to the tenant whose subscription
// applies to them.
//
// In a multi-tenant account model the subscription always belongs to the
// account owner. Employees act under the owner's plan: their resource usage
// counts against the owner's quotas and they never manage billing
// themselves. Resolve maps any user id to that owning tenant:
//
//	resolver := tenant.NewResolver(tenant.NewMongoUserStore(db))
//	id, err := resolver.Resolve(ctx, userID)
//	if err != nil {
//		return err
//	}
//	// id.TenantID owns the subscription; id.IsEmployee tells whether the
//	// caller acts on someone else's behalf.
//
// Resolution happens on every quota check, so results are cached in memory
// with a short TTL. Call Invalidate after moving a user between tenants.
package tenant
