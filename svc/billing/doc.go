// Package billing assembles the subscription lifecycle engine into a
// runnable service: MongoDB stores, the YAML plan catalog, the Paddle
// gateway, Redis-cached usage counters, the tenant resolver, the background
// expiry sweeper and the HTTP API on top.
//
// The HTTP surface exposes the gateway webhook endpoint, the tenant-facing
// subscription status and ledgers, the checkout-session endpoint and the
// administrative plan assignment and cancellation operations.
package billing
