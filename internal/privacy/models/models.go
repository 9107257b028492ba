package models

// Request and response bodies for the privacy-space endpoints. Field names
// match the wire contract consumed by the web client.

type SetPassphraseRequest struct {
	Password    string `json:"password"`
	OldPassword string `json:"old_password,omitempty"`
}

type VerifyPassphraseRequest struct {
	Password string `json:"password"`
}

type VerifyPassphraseResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type TokenValidityResponse struct {
	Valid bool `json:"valid"`
}

type RefreshTokenResponse struct {
	ExpiresIn int `json:"expires_in"`
}

type CheckPassphraseResponse struct {
	HasPassword bool `json:"has_password"`
}
