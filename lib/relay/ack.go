package relay

// Response is the structured result delivered to a request's reply target.
// Only the fields relevant to the operation are set.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
	Found   *bool  `json:"found,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// AckFunc is the reply target of a request. A nil AckFunc means the client
// does not await a result; the operation still runs.
type AckFunc func(resp Response)

// ok creates a successful response with a message
func ok(msg string) Response {
	return Response{Success: true, Message: msg}
}

// failed creates a negative response with a message
func failed(msg string) Response {
	return Response{Success: false, Message: msg}
}

// boolPtr returns a pointer to b
func boolPtr(b bool) *bool {
	return &b
}
