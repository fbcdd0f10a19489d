package access

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/catalogauth/internal/server/models"
)

// HealthPath is served without authentication.
const HealthPath = "/healthz"

// DefaultRules is the catalog's route table. authBase is the prefix of the
// login, logout and me routes, normally "/api/auth".
func DefaultRules(authBase string) []Rule {
	authBase = "/" + strings.Trim(authBase, "/")

	return []Rule{
		{Methods: []string{http.MethodGet}, Pattern: authBase + "/me", Requirement: RequireAuthenticated()},
		{Pattern: authBase + "/**", Requirement: PermitAll()},
		{Methods: []string{http.MethodGet}, Pattern: "/api/products/**", Requirement: PermitAll()},
		{Methods: []string{http.MethodGet}, Pattern: HealthPath, Requirement: PermitAll()},

		{Methods: []string{http.MethodPost}, Pattern: "/api/products", Requirement: RequireRole(models.RoleSeller)},
		{Methods: []string{http.MethodPut, http.MethodDelete}, Pattern: "/api/products/{id}", Requirement: RequireRole(models.RoleSeller)},
		{Methods: []string{http.MethodPut}, Pattern: "/api/products/{id}/questions/{questionId}", Requirement: RequireRole(models.RoleSeller)},

		{Methods: []string{http.MethodPost}, Pattern: "/api/products/{id}/reviews", Requirement: RequireRole(models.RoleBuyer)},
		{Methods: []string{http.MethodPut, http.MethodDelete}, Pattern: "/api/products/{id}/reviews/**", Requirement: RequireRole(models.RoleBuyer)},
		{Methods: []string{http.MethodPost}, Pattern: "/api/products/{id}/questions", Requirement: RequireRole(models.RoleBuyer)},
		{Methods: []string{http.MethodDelete}, Pattern: "/api/products/{id}/questions/{questionId}", Requirement: RequireRole(models.RoleBuyer)},
	}
}

// DefaultPolicy compiles DefaultRules; anything they do not cover requires
// an authenticated caller.
func DefaultPolicy(authBase string) *Policy {
	p, err := NewPolicy(DefaultRules(authBase), RequireAuthenticated())
	if err != nil {
		panic(err)
	}
	return p
}
