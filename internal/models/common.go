package models

const (
	// MwAuthUserKey is the echo context key under which the auth
	// middleware stores the authenticated identity.
	MwAuthUserKey = "authUser"

	// AudienceAccess and AudienceRefresh distinguish the two tokens of a
	// pair so one cannot be used in place of the other.
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)
