package models

import "github.com/google/uuid"

// EndType is the logical channel a session belongs to. Single-session
// enforcement is scoped per (user, end type), so a web login does not
// displace an app login for the same user.
type EndType string

const (
	EndTypeWeb         EndType = "Web"
	EndTypeApp         EndType = "App"
	EndTypeWeChat      EndType = "WeChat"
	EndTypeMiniProgram EndType = "MiniProgram"
	EndTypeSignInitial EndType = "SignInitial"
)

// ClaimPackage carries one claim tuple plus its check-stamp, the content
// hash of "{type}:{value}" used for set-membership comparisons.
type ClaimPackage struct {
	ClaimType  string `json:"claimType"`
	ClaimValue string `json:"claimValue"`
	CheckStamp string `json:"checkStamp"`
}

type RoleInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TokenRecord is the server-side session document resolved from a token
// symbol. It is a snapshot taken at sign-in time: roles and claims are not
// re-queried per request, only the cache TTL slides.
type TokenRecord struct {
	UserID     uuid.UUID      `json:"userId"`
	UserName   string         `json:"userName"`
	EndType    EndType        `json:"endType"`
	Expire     int64          `json:"expire"` // sliding TTL in seconds, <= 0 means no expiration
	UserClaims []ClaimPackage `json:"userClaims"`
	RoleClaims []ClaimPackage `json:"roleClaims"`
	Roles      []RoleInfo     `json:"roles"`
}
