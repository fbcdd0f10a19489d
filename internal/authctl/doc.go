// Package authctl implements the operator commands of the auth service:
// creating users, applying migrations and running a revocation sweep by hand.
//
// Every command reads the same configuration as the server (defaults, JSON
// file, AUTH_* environment, flags) and opens the stores the server would.
package authctl
