package chatbot

import "errors"

// Texts shown to the user. They double as the sentinel error messages so
// the UI can render err.Error() directly.
const (
	WelcomeText       = "Welcome! I'm your customer support assistant. How can I help you today?"
	MissingReplyText  = "I apologize, but I encountered an issue processing your request."
	SendFailureText   = "Sorry, I encountered an error. Please try again."
	invalidUserIDText = "Please enter a valid user ID"
	startFailedText   = "Failed to start session. Please try again."
)

var (
	ErrInvalidUserID      = errors.New(invalidUserIDText)
	ErrSessionStartFailed = errors.New(startFailedText)
	ErrBusy               = errors.New("a request is already in flight")
	ErrSessionActive      = errors.New("session already active")
	ErrNoSession          = errors.New("no active session")
)
