package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/mailer"
	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/notification"
	"github.com/BEASTY2K3/marathon-registration/internal/payments"
	"github.com/BEASTY2K3/marathon-registration/internal/payments/stub"
	"github.com/BEASTY2K3/marathon-registration/internal/service"
	"github.com/BEASTY2K3/marathon-registration/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "rzp_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router        *gin.Engine
	store         *store.MemoryStore
	mail          *mailer.Mock
	registrations *service.RegistrationService
}

func newTestServer(t *testing.T, mailErr error) *testServer {
	t.Helper()

	s := store.NewMemoryStore()
	mail := &mailer.Mock{Err: mailErr}
	notifier := notification.NewFanout(time.Second,
		notification.NewEmailSender(mail, "race@example.com", "Polo Marathon", "Polo Marathon"),
	)

	payService := service.NewPaymentService(s, payments.NewSignatureVerifier(secret), stub.New(""), nil, 49900, "INR")
	regService := service.NewRegistrationService(s, service.NewStoreSequence(s), notifier, nil, service.RegistrationOptions{})

	router := gin.New()
	NewHandler(payService, regService, s).SetupRoutes(router, RouteOptions{AllowedOrigins: []string{"*"}})

	return &testServer{router: router, store: s, mail: mail, registrations: regService}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ts.registrations.Wait(ctx))
}

func verifyBody(orderID, paymentID, signature string) map[string]string {
	return map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  signature,
	}
}

func registerBody(orderID, paymentID string) map[string]string {
	return map[string]string{
		"name":      "Asha",
		"email":     "asha@example.com",
		"phone":     "9999999999",
		"age":       "29",
		"gender":    "F",
		"category":  "10K",
		"paymentId": paymentID,
		"orderId":   orderID,
	}
}

func TestVerifyPayment_ValidSignature(t *testing.T) {
	ts := newTestServer(t, nil)

	w, body := ts.do(t, http.MethodPost, "/payment/verify",
		verifyBody("order_1", "pay_1", payments.Sign(secret, "order_1", "pay_1")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Payment verified", body["message"])

	p, err := ts.store.FindPayment(context.Background(), "order_1", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
}

func TestVerifyPayment_InvalidSignature(t *testing.T) {
	ts := newTestServer(t, nil)

	w, body := ts.do(t, http.MethodPost, "/api/auth/payment/verify",
		verifyBody("order_1", "pay_1", payments.Sign("wrong", "order_1", "pay_1")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Payment verification failed", body["message"])

	_, err := ts.store.FindPayment(context.Background(), "order_1", "pay_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyPayment_MissingFields(t *testing.T) {
	ts := newTestServer(t, nil)

	w, body := ts.do(t, http.MethodPost, "/payment/verify", map[string]string{"razorpay_order_id": "order_1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Payment verification failed", body["message"])
}

func TestRegister_WithoutVerifiedPayment(t *testing.T) {
	ts := newTestServer(t, nil)

	w, body := ts.do(t, http.MethodPost, "/register", registerBody("order_1", "pay_1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Payment not verified. Registration failed.", body["msg"])
	assert.Empty(t, ts.store.Participants())
	ts.drain(t)
	assert.Empty(t, ts.mail.Sent())
}

func TestRegister_AfterVerificationGetsFirstChestNumber(t *testing.T) {
	ts := newTestServer(t, nil)

	w, _ := ts.do(t, http.MethodPost, "/payment/verify",
		verifyBody("order_1", "pay_1", payments.Sign(secret, "order_1", "pay_1")))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := ts.do(t, http.MethodPost, "/api/auth/register", registerBody("order_1", "pay_1"))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully after payment.", body["msg"])
	assert.Equal(t, float64(1000), body["chestNumber"])

	ts.drain(t)
	sent := ts.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"asha@example.com"}, sent[0].To)
	assert.Contains(t, sent[0].TextBody, "Your Chest Number: 1000")
}

func TestRegister_MailFailureStillSucceeds(t *testing.T) {
	ts := newTestServer(t, errors.New("smtp: connection refused"))

	w, _ := ts.do(t, http.MethodPost, "/payment/verify",
		verifyBody("order_1", "pay_1", payments.Sign(secret, "order_1", "pay_1")))
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/payment/verify",
		verifyBody("order_2", "pay_2", payments.Sign(secret, "order_2", "pay_2")))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := ts.do(t, http.MethodPost, "/register", registerBody("order_1", "pay_1"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1000), body["chestNumber"])

	w, body = ts.do(t, http.MethodPost, "/register", registerBody("order_2", "pay_2"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1001), body["chestNumber"])

	ts.drain(t)
	assert.Len(t, ts.mail.Sent(), 2)
	assert.Len(t, ts.store.Participants(), 2)
}

func TestRegister_InvalidBody(t *testing.T) {
	ts := newTestServer(t, nil)

	body := registerBody("order_1", "pay_1")
	body["email"] = "not-an-email"
	delete(body, "name")
	w, out := ts.do(t, http.MethodPost, "/register", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs, ok := out["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "is required", errs["name"])
	assert.Equal(t, "must be a valid email address", errs["email"])
}

type mockPayments struct {
	VerifyFunc func(ctx context.Context, orderID, paymentID, signature string) error
	OrderFunc  func(ctx context.Context, requested int64) (*models.CheckoutOrder, error)
}

func (m *mockPayments) KeyID() string { return "rzp_test_key" }

func (m *mockPayments) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	return m.VerifyFunc(ctx, orderID, paymentID, signature)
}

func (m *mockPayments) CreateCheckoutOrder(ctx context.Context, requested int64) (*models.CheckoutOrder, error) {
	return m.OrderFunc(ctx, requested)
}

type mockRegistrations struct {
	RegisterFunc func(ctx context.Context, req service.RegistrationRequest) (*models.Participant, error)
}

func (m *mockRegistrations) Register(ctx context.Context, req service.RegistrationRequest) (*models.Participant, error) {
	return m.RegisterFunc(ctx, req)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

func newMockServer(p PaymentService, r RegistrationService, ping Pinger) *testServer {
	router := gin.New()
	NewHandler(p, r, ping).SetupRoutes(router, RouteOptions{})
	return &testServer{router: router}
}

func TestServerErrors(t *testing.T) {
	dbDown := errors.New("mongo: server selection timeout")
	ts := newMockServer(
		&mockPayments{
			VerifyFunc: func(ctx context.Context, orderID, paymentID, signature string) error { return dbDown },
			OrderFunc: func(ctx context.Context, requested int64) (*models.CheckoutOrder, error) {
				return nil, errors.New("razorpay: 401")
			},
		},
		&mockRegistrations{RegisterFunc: func(ctx context.Context, req service.RegistrationRequest) (*models.Participant, error) {
			return nil, dbDown
		}},
		mockPinger{err: dbDown},
	)

	w, body := ts.do(t, http.MethodPost, "/payment/verify", verifyBody("o", "p", "s"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error", body["message"])

	w, body = ts.do(t, http.MethodPost, "/register", registerBody("o", "p"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", body["msg"])
	assert.Equal(t, dbDown.Error(), body["error"])

	w, body = ts.do(t, http.MethodPost, "/api/createOrder", map[string]int{"amount": 499})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, body["error"])

	w, _ = ts.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckoutEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	w, body := ts.do(t, http.MethodGet, "/api/get-razorpay-key", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rzp_test_stub", body["key"])

	w, body = ts.do(t, http.MethodPost, "/api/createOrder", map[string]int{"amount": 499})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(49900), body["amount"])
	assert.Equal(t, "INR", body["currency"])
	assert.NotEmpty(t, body["id"])
}

func TestHealthAndRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))

	w, _ = ts.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/register", nil)
	req.Header.Set("Origin", "https://register.example.com")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Register</h1>"), 0o644))

	router := gin.New()
	NewHandler(&mockPayments{}, &mockRegistrations{}, mockPinger{}).SetupRoutes(router, RouteOptions{StaticDir: dir})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Register")
}
