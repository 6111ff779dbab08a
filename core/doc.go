// Package core provides the HTTP response and error-translation primitives
// shared by the service's API surfaces.
//
// Handlers return domain errors; JSONError translates them into consistent
// JSON envelopes with stable error codes. Quota rejections map to
// 402 Payment Required, missing catalog entries and records to 404, module
// gates to 403 and duplicate payments to 409. Anything unrecognized becomes
// a 500 with its message redacted.
package core
