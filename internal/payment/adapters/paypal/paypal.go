// Package paypal implements the payment adapter on the PayPal Orders v2
// API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alprail/membership/internal/config"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
)

const provider = "paypal"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return provider
}

func (f *Factory) NewAdapter(cfg config.Config) (paymentdomain.PaymentAdapter, error) {
	clientID := strings.TrimSpace(cfg.PayPal.ClientID)
	secret := strings.TrimSpace(cfg.PayPal.Secret)
	if clientID == "" || secret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	baseURL := strings.TrimRight(cfg.PayPal.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api-m.sandbox.paypal.com"
	}

	return &Adapter{
		clientID:  clientID,
		secret:    secret,
		baseURL:   baseURL,
		returnURL: cfg.PayPal.ReturnURL,
		cancelURL: cfg.PayPal.CancelURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type Adapter struct {
	clientID  string
	secret    string
	baseURL   string
	returnURL string
	cancelURL string
	http      *http.Client
}

func (a *Adapter) Provider() string {
	return provider
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string      `json:"reference_id,omitempty"`
	Amount      orderAmount `json:"amount"`
}

type orderLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Links         []orderLink    `json:"links"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

func (a *Adapter) CreateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.Checkout, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []purchaseUnit{
			{
				ReferenceID: req.Reference,
				Amount: orderAmount{
					CurrencyCode: strings.ToUpper(req.Currency),
					Value:        formatAmount(req.Amount),
				},
			},
		},
		"application_context": map[string]any{
			"return_url": a.returnURL,
			"cancel_url": a.cancelURL,
		},
	}

	var order orderResponse
	if err := a.call(ctx, http.MethodPost, "/v2/checkout/orders", body, &order); err != nil {
		return nil, err
	}

	redirectURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			redirectURL = link.Href
			break
		}
	}

	return &paymentdomain.Checkout{
		Provider:    provider,
		ProviderRef: order.ID,
		RedirectURL: redirectURL,
	}, nil
}

func (a *Adapter) ConfirmPayment(ctx context.Context, providerRef string) (*paymentdomain.Confirmation, error) {
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", providerRef)

	var order orderResponse
	if err := a.call(ctx, http.MethodPost, path, map[string]any{}, &order); err != nil {
		return nil, err
	}

	confirmation := &paymentdomain.Confirmation{
		Provider:    provider,
		ProviderRef: order.ID,
		Paid:        order.Status == "COMPLETED",
	}
	if len(order.PurchaseUnits) > 0 {
		unit := order.PurchaseUnits[0]
		confirmation.Currency = strings.ToUpper(unit.Amount.CurrencyCode)
		confirmation.Amount = parseAmount(unit.Amount.Value)
	}
	return confirmation, nil
}

func (a *Adapter) call(ctx context.Context, method, path string, body any, out any) error {
	token, err := a.accessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

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
		return fmt.Errorf("paypal %s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw))
	}
	return json.Unmarshal(raw, out)
}

func (a *Adapter) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"),
	)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.clientID, a.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token: status %d: %s", resp.StatusCode, truncate(raw))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", paymentdomain.ErrInvalidConfig
	}
	return token.AccessToken, nil
}

// formatAmount renders integer cents as the decimal string PayPal expects.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func parseAmount(value string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}

func truncate(raw []byte) string {
	const max = 512
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
