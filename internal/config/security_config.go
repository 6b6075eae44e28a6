// config/security_config.go
package config

import "mylib-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
)

// EndpointPolicy is the authentication level of a route and, when set, the
// roles of which the caller needs at least one.
type EndpointPolicy struct {
	Level SecurityLevel
	Roles []domain.Role
}

var (
	staffOnly = []domain.Role{domain.RoleAdmin, domain.RoleLibrarian}
	adminOnly = []domain.Role{domain.RoleAdmin}
)

// EndpointSecurityConfig maps "METHOD path-template" to its policy
var EndpointSecurityConfig = map[string]EndpointPolicy{
	// Auth - Public
	"POST /api/users/register": {Level: SecurityPublic},
	"POST /api/users/login":    {Level: SecurityPublic},
	"GET /api/health":          {Level: SecurityPublic},

	// Auth - Refresh Protected
	"POST /refresh-token":    {Level: SecurityRefresh},
	"POST /api/users/logout": {Level: SecurityRefresh},

	// Users
	"GET /api/users/current":          {Level: SecurityAccess},
	"GET /api/users/all":              {Level: SecurityAccess, Roles: staffOnly},
	"PUT /api/users/{userId}/roles":   {Level: SecurityAccess, Roles: adminOnly},
	"PUT /api/users/{userId}/enable":  {Level: SecurityAccess, Roles: adminOnly},
	"PUT /api/users/{userId}/disable": {Level: SecurityAccess, Roles: adminOnly},

	// Catalog - Public reads
	"GET /book/all-books": {Level: SecurityPublic},
	"GET /book/search":    {Level: SecurityPublic},
	"GET /book/{bookId}":  {Level: SecurityPublic},

	// Catalog - Staff
	"POST /admin/book/add":               {Level: SecurityAccess, Roles: staffOnly},
	"PUT /admin/book/update/{bookId}":    {Level: SecurityAccess, Roles: staffOnly},
	"DELETE /admin/book/delete/{bookId}": {Level: SecurityAccess, Roles: adminOnly},

	// Borrow - Members
	"POST /borrow/request/{userId}/{bookId}": {Level: SecurityAccess},
	"PUT /borrow/return/request/{id}":        {Level: SecurityAccess},
	"PUT /borrow/cancel/request/{id}":        {Level: SecurityAccess},
	"PUT /borrow/cancel/return/{id}":         {Level: SecurityAccess},
	"GET /borrow/history/{userId}":           {Level: SecurityAccess},
	"GET /borrow/active/{userId}":            {Level: SecurityAccess},
	"GET /borrow/{id}":                       {Level: SecurityAccess},

	// Borrow - Staff
	"PUT /borrow/admin/approve/{id}":        {Level: SecurityAccess, Roles: staffOnly},
	"PUT /borrow/admin/reject/{id}":         {Level: SecurityAccess, Roles: staffOnly},
	"PUT /borrow/admin/return/approve/{id}": {Level: SecurityAccess, Roles: staffOnly},
	"GET /borrow/admin/all":                 {Level: SecurityAccess, Roles: staffOnly},
	"GET /borrow/book/{bookId}/history":     {Level: SecurityAccess, Roles: staffOnly},
	"PUT /borrow/admin/update/{id}":         {Level: SecurityAccess, Roles: adminOnly},
	"GET /borrow/admin/audit/{id}":          {Level: SecurityAccess, Roles: adminOnly},

	// Reservation
	"POST /reservation/user/{userId}/{bookId}":  {Level: SecurityAccess},
	"GET /reservation/user/{userId}":            {Level: SecurityAccess},
	"PUT /reservation/user/{reserveId}":         {Level: SecurityAccess},
	"GET /reservation/all":                      {Level: SecurityAccess, Roles: staffOnly},
	"PUT /reservation/admin/reject/{reserveId}": {Level: SecurityAccess, Roles: staffOnly},

	// Fine
	"GET /fine/user/{userId}":         {Level: SecurityAccess},
	"POST /fine/pay/{borrowRecordId}": {Level: SecurityAccess},
	"GET /fine/admin/all":             {Level: SecurityAccess, Roles: staffOnly},

	// Notifications
	"GET /api/notifications":           {Level: SecurityAccess},
	"PUT /api/notifications/{id}/read": {Level: SecurityAccess},
	"GET /ws/notifications":            {Level: SecurityAccess},
}

// GetEndpointPolicy returns the policy for a route. Unknown routes require an
// access token.
func GetEndpointPolicy(method, pathTemplate string) EndpointPolicy {
	if policy, ok := EndpointSecurityConfig[method+" "+pathTemplate]; ok {
		return policy
	}
	return EndpointPolicy{Level: SecurityAccess}
}
