// Package subscription implements the subscription lifecycle and quota
// enforcement engine: rolling anniversary-aligned quota windows, per-resource
// limits extended by purchasable add-ons, idempotent payment-event intake and
// the append-only history ledger behind billing audit.
//
// # Architecture
//
//   - Service: the engine interface; limit gate, module gate, payment intake,
//     administrative surface and the expiry sweep
//   - Record: one start/end-dated subscription segment per purchase
//   - AddonRecord: a quota extension valid only inside the segment it was
//     purchased in
//   - HistoryEntry: immutable invoice-bearing audit rows
//   - PaymentProvider: webhook verification and event normalization (Paddle
//     implementation included)
//   - CounterFunc: usage counting delegated to the application layer
//
// # Quota windows
//
// Usage is counted inside a monthly window anchored to the subscription's
// start day, not the calendar month: a subscription starting Jan 15 produces
// windows Jan 15–Feb 14, Feb 15–Mar 14 and so on, with the anchor day clamped
// in shorter months. Employees are standing seats and counted point-in-time;
// visitors, appointments and spot passes are flow resources counted inside
// the window.
//
// # Idempotency
//
// The payment gateway delivers events at least once. Every lifecycle
// transition first looks its external payment identifier up and returns the
// existing row on a hit; a unique partial index on payment_id closes the
// remaining race between concurrent duplicate deliveries. Segment writes,
// their history entries and the tenant pointer update run in one MongoDB
// transaction.
package subscription
