package dto

// ErrorResponse is the uniform error payload for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// AsyncResponse represents an async operation response (202 Accepted)
type AsyncResponse struct {
	Status string  `json:"status"`
	JobID  string  `json:"job_id,omitempty"`
	Link   *string `json:"link,omitempty"`
}
