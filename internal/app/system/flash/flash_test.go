package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	Init([]byte("0123456789abcdef0123456789abcdef"))

	w := httptest.NewRecorder()
	Set(w, Success, "Request approved.")

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	r := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	r.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()

	m, ok := Take(w2, r)
	if !ok {
		t.Fatal("expected a message")
	}
	if m.Kind != Success || m.Text != "Request approved." {
		t.Fatalf("unexpected message %+v", m)
	}

	// Take must clear the cookie.
	cleared := w2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Fatalf("expected clearing cookie, got %+v", cleared)
	}
}

func TestTamperedCookieDropped(t *testing.T) {
	Init([]byte("0123456789abcdef0123456789abcdef"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "docuchat-flash", Value: "garbage"})
	w := httptest.NewRecorder()

	if _, ok := Take(w, r); ok {
		t.Fatal("tampered cookie should not decode")
	}
}

func TestNoCookie(t *testing.T) {
	Init([]byte("0123456789abcdef0123456789abcdef"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	if _, ok := Take(w, r); ok {
		t.Fatal("expected no message without cookie")
	}
}
