package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// MidtransGateway uses Midtrans Snap. Midtrans settles in IDR only and IDR has
// no minor unit, so AmountCents is sent as whole rupiah.
type MidtransGateway struct {
	snap      snap.Client
	serverKey string
	finishURL string
}

// NewMidtransGateway creates a MidtransGateway.
func NewMidtransGateway(serverKey string, production bool, finishURL string) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &MidtransGateway{serverKey: serverKey, finishURL: finishURL}
	g.snap.New(serverKey, env)
	return g
}

// Provider implements Gateway.
func (g *MidtransGateway) Provider() model.PaymentProvider { return model.PaymentProviderMidtrans }

func (g *MidtransGateway) snapRequest(in CheckoutInput) (*snap.Request, error) {
	if !strings.EqualFold(in.Currency, "IDR") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, in.Currency)
	}
	orderID := in.PaymentID.String()
	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: in.AmountCents,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: in.CustomerName,
			Email: in.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    in.CourseID.String(),
			Name:  truncate(in.CourseTitle, 50),
			Price: in.AmountCents,
			Qty:   1,
		}},
		Callbacks: &snap.Callbacks{Finish: withPaymentID(g.finishURL, orderID)},
	}, nil
}

// CreateCheckout creates a Snap transaction. The order id is our payment id.
func (g *MidtransGateway) CreateCheckout(_ context.Context, in CheckoutInput) (Session, error) {
	req, err := g.snapRequest(in)
	if err != nil {
		return Session{}, err
	}
	res, mErr := g.snap.CreateTransaction(req)
	if mErr != nil {
		return Session{}, fmt.Errorf("midtrans checkout: %s", mErr.Error())
	}
	return Session{ProviderRef: req.TransactionDetails.OrderID, URL: res.RedirectURL}, nil
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusMessage     string `json:"status_message"`
}

// midtransSignature is SHA512(order_id + status_code + gross_amount + server_key) in hex.
func midtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// ParseWebhook verifies the notification signature and maps transaction_status.
func (g *MidtransGateway) ParseWebhook(payload []byte, _ http.Header) (*Event, error) {
	var n midtransNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if n.OrderID == "" || n.SignatureKey == "" {
		return nil, fmt.Errorf("%w: missing order_id or signature_key", ErrMalformedPayload)
	}

	expected := midtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, g.serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) != 1 {
		return nil, ErrInvalidSignature
	}

	evt := &Event{PaymentID: n.OrderID, ProviderRef: n.OrderID}
	switch n.TransactionStatus {
	case "settlement":
		evt.Status = model.PaymentStatusSucceeded
	case "capture":
		if n.FraudStatus != "" && n.FraudStatus != "accept" {
			return nil, nil
		}
		evt.Status = model.PaymentStatusSucceeded
	case "deny", "cancel", "failure":
		evt.Status, evt.Reason = model.PaymentStatusFailed, n.TransactionStatus
	case "expire":
		evt.Status, evt.Reason = model.PaymentStatusExpired, "transaction expired"
	default:
		return nil, nil
	}
	return evt, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
