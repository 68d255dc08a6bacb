// Package store declares the repository used to keep an audit trail of
// tracker sessions: when each tracker started, how far it got, and how it
// ended.
package store
