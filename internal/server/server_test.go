package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	signupdomain "github.com/alprail/membership/internal/signup/domain"
	"github.com/gin-gonic/gin"
)

type fakeSignupService struct {
	called bool
	err    error
}

func (f *fakeSignupService) Signup(ctx context.Context, req signupdomain.Request) (*signupdomain.Result, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return &signupdomain.Result{
		OrganizationID: "100",
		MemberID:       "101",
		SubscriptionID: "102",
		InvoiceID:      "103",
		InvoiceNumber:  "INV-20260301-00100",
	}, nil
}

type fakeInvoiceService struct {
	invoice *invoicedomain.Invoice
	pdf     []byte
	err     error
}

func (f *fakeInvoiceService) Get(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	return invoicedomain.ListInvoiceResponse{}, f.err
}

func (f *fakeInvoiceService) MarkPaid(ctx context.Context, req invoicedomain.MarkPaidRequest) (*invoicedomain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pdf, nil
}

type fakePaymentService struct {
	confirmErr error
}

func (f *fakePaymentService) Initiate(ctx context.Context, req paymentdomain.InitiatePaymentRequest) (*paymentdomain.InitiatePaymentResponse, error) {
	return &paymentdomain.InitiatePaymentResponse{
		PaymentID:   "200",
		Provider:    req.Provider,
		ProviderRef: "ref_1",
		RedirectURL: "https://pay.example/ref_1",
	}, nil
}

func (f *fakePaymentService) Confirm(ctx context.Context, req paymentdomain.ConfirmPaymentRequest) (*paymentdomain.ConfirmPaymentResponse, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &paymentdomain.ConfirmPaymentResponse{SubscriptionID: "300"}, nil
}

func (f *fakePaymentService) Get(ctx context.Context, id string) (*paymentdomain.Payment, error) {
	return nil, paymentdomain.ErrPaymentNotFound
}

func (f *fakePaymentService) List(ctx context.Context, req paymentdomain.ListPaymentRequest) (paymentdomain.ListPaymentResponse, error) {
	return paymentdomain.ListPaymentResponse{}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestRegisterReturnsCreatedEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	signupSvc := &fakeSignupService{}
	srv := &Server{signupSvc: signupSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/register", srv.Register)

	body := `{"first_name":"Anna","last_name":"Keller","email":"anna@example.com","password":"secret123","plan_id":"1","currency":"CHF"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !signupSvc.called {
		t.Fatal("expected signup service to be called")
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", resp.Body.String())
	}
}

func TestRegisterEmailTakenMapsTo422(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{signupSvc: &fakeSignupService{err: signupdomain.ErrEmailTaken}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/register", srv.Register)

	body := `{"first_name":"Anna","last_name":"Keller","email":"anna@example.com","password":"secret123","plan_id":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.Message != "email_taken" {
		t.Fatalf("expected email_taken message, got %q", env.Message)
	}
}

func TestGetInvoiceNotFoundMapsTo404(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{invoiceSvc: &fakeInvoiceService{err: invoicedomain.ErrInvoiceNotFound}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/invoices/:id", srv.GetInvoice)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if env.Message != "invoice_not_found" {
		t.Fatalf("expected invoice_not_found message, got %q", env.Message)
	}
}

func TestDownloadInvoicePDFSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{invoiceSvc: &fakeInvoiceService{
		invoice: &invoicedomain.Invoice{InvoiceNumber: "INV-20260115-00042"},
		pdf:     []byte("%PDF-1.7 test"),
	}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/invoices/:id/pdf", srv.DownloadInvoicePDF)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/42/pdf", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd != "attachment; filename=INV-20260115-00042.pdf" {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected pdf bytes in response body")
	}
}

func TestConfirmPaymentNotCompletedMapsTo422(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{paymentSvc: &fakePaymentService{confirmErr: paymentdomain.ErrPaymentNotCompleted}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/payments/confirm", srv.ConfirmPayment)

	body := `{"provider":"stripe","provider_ref":"cs_123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/confirm", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
}

func TestUnknownErrorMapsTo500WithoutDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{invoiceSvc: &fakeInvoiceService{err: context.DeadlineExceeded}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/invoices/:id", srv.GetInvoice)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if env.Message != "internal server error" {
		t.Fatalf("expected generic message, got %q", env.Message)
	}
}
