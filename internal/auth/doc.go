// Package auth provides the authentication and authorization primitives
// of the account service.
//
// This package implements:
//   - One-way password hashing (bcrypt) with constant-time verification
//   - HS256 identity token issuance and verification
//   - Role and ownership checks over a verified identity
//
// Nothing here touches HTTP; the middleware package adapts these checks
// to request handling.
package auth
