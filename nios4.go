// Package nios4 is a Go client for the NIOS4 synchronization web service:
// a multi-tenant database platform exposing record CRUD, search, file
// transfer and sync actions over HTTPS with JSON envelopes.
//
// The importable surface lives in two subpackages:
//   - client: the session client, one method per remote action
//   - tid: time identifiers and field value coercion
//
// This package re-exports the common entry points so most programs only
// import the module root.
package nios4

import (
	"github.com/nios4/go-nios4/client"
	"github.com/nios4/go-nios4/tid"
)

type (
	// Client is the NIOS4 session client.
	Client = client.Client

	// Config configures a Client.
	Config = client.Config

	// Scope carries per-call token/database overrides. Overrides rebind
	// the session permanently; see client.Scope.
	Scope = client.Scope

	// Record is one database row as an opaque field mapping.
	Record = client.Record

	// FindQuery parameterizes filtered/ordered searches.
	FindQuery = client.FindQuery

	// FuzzyQuery parameterizes fuzzy-match searches.
	FuzzyQuery = client.FuzzyQuery

	// OrderField is one sort key, serialized as ["field", ascending].
	OrderField = client.OrderField

	// SaveOptions qualifies a SaveRecord call.
	SaveOptions = client.SaveOptions

	// TID is a UTC instant as a 14-digit YYYYMMDDHHMMSS integer.
	TID = tid.TID
)

// New creates a session client from cfg.
func New(cfg Config) *Client {
	return client.New(cfg)
}

// Now returns the current UTC instant as a TID.
func Now() TID {
	return tid.Now()
}

// NormalizeDate converts a date value (time.Time, integer TID, or a
// "YYYY-MM-DD" string) to a TID.
func NormalizeDate(v any) (TID, error) {
	return tid.NormalizeDate(v)
}
