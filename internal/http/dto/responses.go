package dto

type AuthResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type StartCampaignResponse struct {
	RunID string `json:"run_id"`
}

type StopCampaignResponse struct {
	Stopped bool `json:"stopped"`
}
