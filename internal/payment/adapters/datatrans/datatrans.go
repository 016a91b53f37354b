// Package datatrans implements the payment adapter on the Datatrans JSON
// API.
package datatrans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alprail/membership/internal/config"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
)

const provider = "datatrans"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return provider
}

func (f *Factory) NewAdapter(cfg config.Config) (paymentdomain.PaymentAdapter, error) {
	merchantID := strings.TrimSpace(cfg.Datatrans.MerchantID)
	password := strings.TrimSpace(cfg.Datatrans.Password)
	if merchantID == "" || password == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	baseURL := strings.TrimRight(cfg.Datatrans.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.sandbox.datatrans.com"
	}

	return &Adapter{
		merchantID: merchantID,
		password:   password,
		baseURL:    baseURL,
		successURL: cfg.Datatrans.SuccessURL,
		errorURL:   cfg.Datatrans.ErrorURL,
		cancelURL:  cfg.Datatrans.CancelURL,
		http:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type Adapter struct {
	merchantID string
	password   string
	baseURL    string
	successURL string
	errorURL   string
	cancelURL  string
	http       *http.Client
}

func (a *Adapter) Provider() string {
	return provider
}

type initRequest struct {
	Currency string      `json:"currency"`
	Refno    string      `json:"refno"`
	Amount   int64       `json:"amount"`
	Redirect redirectSet `json:"redirect"`
}

type redirectSet struct {
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
	ErrorURL   string `json:"errorUrl"`
}

type initResponse struct {
	TransactionID string `json:"transactionId"`
}

type statusResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Currency      string `json:"currency"`
	Detail        struct {
		Authorize struct {
			Amount int64 `json:"amount"`
		} `json:"authorize"`
	} `json:"detail"`
}

func (a *Adapter) CreateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.Checkout, error) {
	body := initRequest{
		Currency: strings.ToUpper(req.Currency),
		Refno:    req.Reference,
		Amount:   req.Amount,
		Redirect: redirectSet{
			SuccessURL: a.successURL,
			CancelURL:  a.cancelURL,
			ErrorURL:   a.errorURL,
		},
	}

	var initResp initResponse
	if err := a.call(ctx, http.MethodPost, "/v1/transactions", body, &initResp); err != nil {
		return nil, err
	}
	if initResp.TransactionID == "" {
		return nil, paymentdomain.ErrProviderDeclined
	}

	return &paymentdomain.Checkout{
		Provider:    provider,
		ProviderRef: initResp.TransactionID,
		RedirectURL: fmt.Sprintf("%s/v1/start/%s", a.baseURL, initResp.TransactionID),
	}, nil
}

func (a *Adapter) ConfirmPayment(ctx context.Context, providerRef string) (*paymentdomain.Confirmation, error) {
	var status statusResponse
	if err := a.call(ctx, http.MethodGet, "/v1/transactions/"+providerRef, nil, &status); err != nil {
		return nil, err
	}

	paid := false
	switch status.Status {
	case "authorized", "settled", "transmitted":
		paid = true
	}

	return &paymentdomain.Confirmation{
		Provider:    provider,
		ProviderRef: status.TransactionID,
		Paid:        paid,
		Amount:      status.Detail.Authorize.Amount,
		Currency:    strings.ToUpper(status.Currency),
	}, nil
}

func (a *Adapter) call(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(a.merchantID, a.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("datatrans %s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func truncate(raw []byte) string {
	const max = 512
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
