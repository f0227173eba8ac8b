package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parkly/pkg/logger"
)

const webhookPath = "/api/v1/payments/webhook"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookSignatureVerification_ValidSignature(t *testing.T) {
	secret := "whsec_test"
	body := `{"event":"payment.captured","payload":{}}`

	var seenBody string
	handler := WebhookSignatureVerification(secret, webhookPath, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			seenBody = string(data)
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodPost, webhookPath, strings.NewReader(body))
	req.Header.Set(SignatureHeader, sign([]byte(body), secret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if seenBody != body {
		t.Errorf("expected handler to see the original body, got %q", seenBody)
	}
}

func TestWebhookSignatureVerification_InvalidSignature(t *testing.T) {
	handler := WebhookSignatureVerification("whsec_test", webhookPath, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run on invalid signature")
		}))

	req := httptest.NewRequest(http.MethodPost, webhookPath, strings.NewReader(`{}`))
	req.Header.Set(SignatureHeader, "deadbeef")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookSignatureVerification_MissingSignature(t *testing.T) {
	handler := WebhookSignatureVerification("whsec_test", webhookPath, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run without a signature")
		}))

	req := httptest.NewRequest(http.MethodPost, webhookPath, strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookSignatureVerification_OtherPathsPassThrough(t *testing.T) {
	handler := WebhookSignatureVerification("whsec_test", webhookPath, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected unsigned request on another path to pass, got %d", rec.Code)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"refund.processed"}`)
	secret := "whsec_test"

	if !VerifySignature(body, sign(body, secret), secret) {
		t.Error("expected matching signature to verify")
	}
	if VerifySignature(body, sign(body, "other_secret"), secret) {
		t.Error("expected signature from another secret to fail")
	}
	if VerifySignature([]byte(`tampered`), sign(body, secret), secret) {
		t.Error("expected tampered body to fail")
	}
}
