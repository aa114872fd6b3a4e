// Package api exposes the todo operations over HTTP. Every route under
// /api/todos requires a bearer token whose subject is the owner id.
package api
