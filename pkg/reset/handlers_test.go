package reset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureMailer records issued tokens instead of sending anything.
type captureMailer struct {
	email string
	token string
	err   error
}

func (m *captureMailer) SendResetLink(ctx context.Context, email, token string) error {
	m.email = email
	m.token = token
	return m.err
}

// captureUpdater records password changes and can be scripted to fail.
type captureUpdater struct {
	email    string
	password string
	err      error
	calls    int
}

func (u *captureUpdater) UpdatePassword(ctx context.Context, email, password string) error {
	u.calls++
	u.email = email
	u.password = password
	return u.err
}

type handlerFixture struct {
	mux     *http.ServeMux
	service *Service
	mailer  *captureMailer
	updater *captureUpdater
	clock   *serviceClock
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	clock := &serviceClock{t: time.Unix(1_700_000_000, 0)}
	service := NewService(NewMemoryStore(), time.Hour, discardLogger(), WithServiceClock(clock.Now))
	mailer := &captureMailer{}
	updater := &captureUpdater{}

	mux := http.NewServeMux()
	NewHandler(service, mailer, updater, discardLogger()).Register(mux)
	return &handlerFixture{mux: mux, service: service, mailer: mailer, updater: updater, clock: clock}
}

func (f *handlerFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body %q is not JSON: %v", w.Body.String(), err)
	}
	return body
}

func TestForgotPassword(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.post(t, ForgotPasswordPath, `{"email": "maria@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != msgForgotGeneric {
		t.Errorf("message = %q, want %q", got, msgForgotGeneric)
	}
	if f.mailer.email != "maria@example.com" || len(f.mailer.token) != TokenLength {
		t.Errorf("mailer got email=%q token len=%d", f.mailer.email, len(f.mailer.token))
	}

	v := f.service.Validate(context.Background(), f.mailer.token)
	if !v.IsValid {
		t.Errorf("issued token does not validate: %+v", v)
	}
}

func TestForgotPassword_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", "not json"},
		{"missing email", `{}`},
		{"blank email", `{"email": "   "}`},
		{"no at sign", `{"email": "maria.example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			w := f.post(t, ForgotPasswordPath, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if got := decodeBody(t, w)["error"]; got != msgEmailRequired {
				t.Errorf("error = %q, want %q", got, msgEmailRequired)
			}
		})
	}
}

// The endpoint must answer identically for known and unknown emails, even
// when delivery fails; anything else leaks which accounts exist.
func TestForgotPassword_NoEnumeration(t *testing.T) {
	f := newHandlerFixture(t)
	f.mailer.err = errors.New("smtp down")

	w := f.post(t, ForgotPasswordPath, `{"email": "whoever@example.com"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite mailer failure", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != msgForgotGeneric {
		t.Errorf("message = %q, want %q", got, msgForgotGeneric)
	}
}

func TestResetPassword(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	token, err := f.service.Issue(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	w := f.post(t, ResetPasswordPath, `{"token": "`+token+`", "password": "nova-senha-123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["message"]; got != msgResetSuccess {
		t.Errorf("message = %q, want %q", got, msgResetSuccess)
	}
	if f.updater.email != "maria@example.com" || f.updater.password != "nova-senha-123" {
		t.Errorf("updater got email=%q password=%q", f.updater.email, f.updater.password)
	}

	// The token is consumed.
	w = f.post(t, ResetPasswordPath, `{"token": "`+token+`", "password": "outra-senha-456"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reuse status = %d, want 400", w.Code)
	}
	if got := decodeBody(t, w)["error"]; got != MsgTokenUsed {
		t.Errorf("reuse error = %q, want %q", got, MsgTokenUsed)
	}
}

func TestResetPassword_Failures(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	expired, _ := f.service.Issue(ctx, "a@b.com")
	f.clock.Advance(2 * time.Hour)
	fresh, _ := f.service.Issue(ctx, "a@b.com")
	used, _ := f.service.Issue(ctx, "a@b.com")
	f.service.MarkUsed(ctx, used)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"not JSON", "{", MsgTokenInvalid},
		{"short password", `{"token": "` + fresh + `", "password": "curta"}`, msgPasswordLength},
		{"unknown token", `{"token": "no-such-token", "password": "senha-valida"}`, MsgTokenInvalid},
		{"expired token", `{"token": "` + expired + `", "password": "senha-valida"}`, MsgTokenExpired},
		{"used token", `{"token": "` + used + `", "password": "senha-valida"}`, MsgTokenUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post(t, ResetPasswordPath, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if got := decodeBody(t, w)["error"]; got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}

	if f.updater.calls != 0 {
		t.Errorf("updater called %d times on failing requests", f.updater.calls)
	}
}

// A failed backend update leaves the token usable for a retry.
func TestResetPassword_UpdateFailureKeepsToken(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	token, _ := f.service.Issue(ctx, "maria@example.com")
	f.updater.err = errors.New("backend down")

	w := f.post(t, ResetPasswordPath, `{"token": "`+token+`", "password": "nova-senha-123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeBody(t, w)["error"]; got != msgUpdateFailed {
		t.Errorf("error = %q, want %q", got, msgUpdateFailed)
	}

	f.updater.err = nil
	w = f.post(t, ResetPasswordPath, `{"token": "`+token+`", "password": "nova-senha-123"}`)
	if w.Code != http.StatusOK {
		t.Errorf("retry status = %d, want 200; body %s", w.Code, w.Body.String())
	}
}

func TestValidateToken(t *testing.T) {
	f := newHandlerFixture(t)
	token, _ := f.service.Issue(context.Background(), "maria@example.com")

	get := func(tok string) Validation {
		r := httptest.NewRequest("GET", ValidateTokenPath+"?token="+tok, nil)
		w := httptest.NewRecorder()
		f.mux.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var v Validation
		if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
			t.Fatalf("body %q: %v", w.Body.String(), err)
		}
		return v
	}

	if v := get(token); !v.IsValid || v.Email != "maria@example.com" {
		t.Errorf("valid token -> %+v", v)
	}
	if v := get("no-such-token"); v.IsValid || v.Error != MsgTokenInvalid {
		t.Errorf("unknown token -> %+v", v)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	f := newHandlerFixture(t)

	r := httptest.NewRequest("GET", ForgotPasswordPath, nil)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET %s status = %d, want 405", ForgotPasswordPath, w.Code)
	}
}
