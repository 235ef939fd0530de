package models

// Session is the payload returned by every authentication entry point.
// It is assembled per request and never persisted.
type Session struct {
	UserID       string   `json:"userId"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	ExpiryTime   string   `json:"expiryTime"`
	Roles        []string `json:"roles"`
	Name         string   `json:"name"`
}
