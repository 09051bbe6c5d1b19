package message

// Result is the outcome of routing a message through the pipeline to a
// terminal handler.
//
// ForwardedMessages carries next-stage messages emitted by workflow
// orchestration; the router does not dispatch them itself, the caller
// re-routes them.
type Result struct {
	Success           bool
	Response          string
	Error             string
	Data              map[string]any
	ForwardedMessages []*Message
}

// Ok creates a successful result with an optional response string.
func Ok(response string) *Result {
	return &Result{Success: true, Response: response}
}

// Fail creates a failed result with the given error message.
func Fail(errMsg string) *Result {
	return &Result{Success: false, Error: errMsg}
}

// SetData stores a data value, allocating the map on first use.
func (r *Result) SetData(key string, value any) {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
}

// GetData returns the data value for key.
func (r *Result) GetData(key string) (any, bool) {
	if r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[key]
	return v, ok
}

// Forward appends a forwarded message to the result.
func (r *Result) Forward(msg *Message) {
	r.ForwardedMessages = append(r.ForwardedMessages, msg)
}
