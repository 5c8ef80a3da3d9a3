// Package store persists the dashboard configuration, the send audit trail,
// dashboard users and key/value settings in Postgres.
//
// Every method resolves its Queryer with db.QueryerFromContext, so calls made
// inside db.InTx or WithSendLock join the surrounding transaction.
package store
