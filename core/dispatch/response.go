package dispatch

// Control is one actionable button attached to a response.
type Control struct {
	Label    string
	ActionID string
	Payload  string
}

// Response is the single outbound message produced for a processed event.
// Controls are grouped into rows, rendered by the transport as an inline
// keyboard.
type Response struct {
	Text     string
	Controls [][]Control

	// Notice marks ephemeral feedback (callback alert) instead of a full
	// message edit.
	Notice bool
}

// TextResponse builds a plain text response.
func TextResponse(text string) *Response {
	return &Response{Text: text}
}

// NoticeResponse builds an ephemeral notice shown without mutating the chat.
func NoticeResponse(text string) *Response {
	return &Response{Text: text, Notice: true}
}

// WithRow appends one row of controls.
func (r *Response) WithRow(controls ...Control) *Response {
	r.Controls = append(r.Controls, controls)
	return r
}
