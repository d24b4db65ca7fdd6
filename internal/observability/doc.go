// Package observability builds the structured logger shared by every layer
// of the account service.
package observability
