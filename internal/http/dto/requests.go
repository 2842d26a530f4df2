package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StartCampaignRequest launches a posting run. Configuration keys
// overlay the server-level automation defaults; unknown keys are
// ignored and malformed values fall back to defaults.
type StartCampaignRequest struct {
	Credentials   CredentialsPayload `json:"credentials"`
	Configuration map[string]any     `json:"configuration,omitempty"`
}
