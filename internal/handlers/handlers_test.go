package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"golanka_travel_echo/internal/middleware"
	"golanka_travel_echo/internal/models"
	"golanka_travel_echo/internal/payments"
)

const (
	testOrderID        = "8f1f6c3e-2f0e-4d6f-9d55-0e6f1f9b0a11"
	testMerchantID     = "1221149"
	testMerchantSecret = "MzQ1NjE2NDgxMjM0NTY3ODkw"
	testStripeSecret   = "whsec_test_secret"
	testMidtransKey    = "SB-Mid-server-test"
)

type memoryStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	recorded map[string]bool
	failAll  error
}

func newMemoryStore(orders ...*models.Order) *memoryStore {
	s := &memoryStore{orders: make(map[string]*models.Order), recorded: make(map[string]bool)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *memoryStore) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, payments.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memoryStore) ConfirmPayment(ctx context.Context, req payments.ConfirmPaymentRequest) (payments.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[req.OrderID]
	if !ok {
		return 0, payments.ErrOrderNotFound
	}
	key := string(req.Provider) + ":" + req.TransactionID
	if o.PaymentInfo.ID == req.TransactionID || s.recorded[key] {
		return payments.TransitionDuplicate, nil
	}
	if o.OrderStatus.IsTerminal() {
		return payments.TransitionRejected, nil
	}
	o.OrderStatus = models.OrderStatusConfirmed
	o.PaymentInfo = models.PaymentInfo{ID: req.TransactionID, Status: models.PaymentInfoStatusPaid}
	s.recorded[key] = true
	return payments.TransitionApplied, nil
}

func (s *memoryStore) order(id string) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []payments.ConfirmationNotice
}

func (n *recordingNotifier) Dispatch(ctx context.Context, notice payments.ConfirmationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type recordingHistory struct {
	mu      sync.Mutex
	entries []models.PaymentCallbackHistory
	err     error
}

func (h *recordingHistory) RecordCallback(ctx context.Context, entry models.PaymentCallbackHistory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return h.err
}

func (h *recordingHistory) last(t *testing.T) models.PaymentCallbackHistory {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.entries)
	return h.entries[len(h.entries)-1]
}

type testServer struct {
	echo     *echo.Echo
	store    *memoryStore
	notifier *recordingNotifier
	history  *recordingHistory
	verifier Verifiers
}

func processingOrder() *models.Order {
	return &models.Order{
		ID:          testOrderID,
		UserID:      "user-1",
		User:        &models.User{ID: "user-1", Email: "o1.owner@example.com"},
		OrderStatus: models.OrderStatusProcessing,
	}
}

func newTestServer(t *testing.T, orders ...*models.Order) *testServer {
	t.Helper()
	ts := &testServer{
		store:    newMemoryStore(orders...),
		notifier: &recordingNotifier{},
		history:  &recordingHistory{},
		verifier: Verifiers{
			Stripe:   payments.NewStripeVerifier(testStripeSecret),
			PayHere:  payments.NewPayHereVerifier(testMerchantID, testMerchantSecret),
			Midtrans: payments.NewMidtransVerifier(testMidtransKey),
		},
	}

	reconciler := payments.NewReconciler(ts.store, ts.notifier, nil)
	ts.echo = echo.New()
	ts.echo.HTTPErrorHandler = middleware.NewErrorHandler(nil, false)
	RegisterRoutes(ts.echo,
		NewWebhookHandler(reconciler, ts.verifier, ts.history, nil),
		NewPaymentHandler(ts.verifier.PayHere),
	)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return ts.do(req)
}

func (ts *testServer) postJSON(path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return ts.do(req)
}

var errStoreDown = errors.New("connection refused")
