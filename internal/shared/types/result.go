package types

// Result is the uniform operation result returned across the UI boundary.
// Operations never throw across the seam; failures are carried in Error.
type Result struct {
	Success bool                   `json:"ok"`
	Error   *string                `json:"error,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Ok creates a successful result.
func Ok(data map[string]interface{}) *Result {
	return &Result{Success: true, Data: data}
}

// Fail creates a failed result with a human-readable message.
func Fail(message string) *Result {
	msg := message
	return &Result{Success: false, Error: &msg}
}
