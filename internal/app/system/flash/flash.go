// Package flash carries one-shot status messages across a redirect using a
// signed cookie. Benign workflow outcomes ("Request already processed.",
// "User no longer exists.") are absorbed at the handler boundary and shown
// to the user as these toasts rather than surfacing as errors.
package flash

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const cookieName = "docuchat-flash"

// Kind classifies a message for presentation.
const (
	Success = "success"
	Info    = "info"
	Error   = "error"
)

// Message is one toast.
type Message struct {
	Kind string
	Text string
}

var codec *securecookie.SecureCookie

// Init configures the signing key. Must be called during startup; Set/Take
// are no-ops until then.
func Init(key []byte) {
	codec = securecookie.New(key, nil)
}

// Set queues a message to be shown after the next page load.
func Set(w http.ResponseWriter, kind, text string) {
	if codec == nil {
		return
	}
	encoded, err := codec.Encode(cookieName, Message{Kind: kind, Text: text})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60,
	})
}

// Take returns the queued message, if any, and clears it.
func Take(w http.ResponseWriter, r *http.Request) (Message, bool) {
	if codec == nil {
		return Message{}, false
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Message{}, false
	}
	// Clear regardless of decode outcome; a tampered cookie is dropped.
	http.SetCookie(w, &http.Cookie{
		Name:   cookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	var m Message
	if err := codec.Decode(cookieName, c.Value, &m); err != nil {
		return Message{}, false
	}
	return m, true
}
