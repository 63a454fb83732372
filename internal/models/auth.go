package models

import "github.com/golang-jwt/jwt/v5"

// Capabilities issued to report consumers.
const (
	CapabilityReportView  = "report:view"
	CapabilityReportAdmin = "report:admin"
)

// JWTClaims are the access-token claims issued by the host platform.
type JWTClaims struct {
	UserID       string   `json:"uid"`
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// HasCapability reports whether the token carries the named capability.
func (c *JWTClaims) HasCapability(name string) bool {
	if c == nil {
		return false
	}
	for _, cap := range c.Capabilities {
		if cap == name {
			return true
		}
	}
	return false
}
