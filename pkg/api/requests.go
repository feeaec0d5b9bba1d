package api

// Request tokens understood on the work channel. Anything else is answered
// with an ErrorReply.
const (
	WorkRequestToken   = "work-request"
	ConfigRequestToken = "config-request"
)

// StatusRequestToken is sent on the status channel. The responder answers
// any probe, the token is informational.
const StatusRequestToken = "status-request"

// ErrorReply is sent on the work channel when a request cannot be served,
// e.g. because its token was not recognised. Work and config replies never
// populate an "error" key, so the field doubles as the discriminator.
type ErrorReply struct {
	Error string `json:"error"`
}
