package payment

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedStripe(t *testing.T, payload string) http.Header {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)
	return h
}

func stripeEvent(eventType, sessionJSON string) string {
	return fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":"2024-06-20","type":%q,"data":{"object":%s}}`,
		eventType, sessionJSON)
}

func TestStripe_ParseWebhook(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "http://localhost/ok", "http://localhost/cancel")
	pid := uuid.New().String()

	tests := []struct {
		name    string
		event   string
		session string
		want    *Event
	}{
		{
			name:    "completed and paid",
			event:   "checkout.session.completed",
			session: `{"id":"cs_1","object":"checkout.session","client_reference_id":"` + pid + `","payment_status":"paid"}`,
			want:    &Event{PaymentID: pid, ProviderRef: "cs_1", Status: model.PaymentStatusSucceeded},
		},
		{
			name:    "completed but unpaid waits for async result",
			event:   "checkout.session.completed",
			session: `{"id":"cs_2","object":"checkout.session","client_reference_id":"` + pid + `","payment_status":"unpaid"}`,
			want:    nil,
		},
		{
			name:    "async success",
			event:   "checkout.session.async_payment_succeeded",
			session: `{"id":"cs_3","object":"checkout.session","client_reference_id":"` + pid + `","payment_status":"paid"}`,
			want:    &Event{PaymentID: pid, ProviderRef: "cs_3", Status: model.PaymentStatusSucceeded},
		},
		{
			name:    "async failure",
			event:   "checkout.session.async_payment_failed",
			session: `{"id":"cs_4","object":"checkout.session","client_reference_id":"` + pid + `"}`,
			want:    &Event{PaymentID: pid, ProviderRef: "cs_4", Status: model.PaymentStatusFailed, Reason: "async payment failed"},
		},
		{
			name:    "expired falls back to metadata",
			event:   "checkout.session.expired",
			session: `{"id":"cs_5","object":"checkout.session","metadata":{"payment_id":"` + pid + `"}}`,
			want:    &Event{PaymentID: pid, ProviderRef: "cs_5", Status: model.PaymentStatusExpired, Reason: "checkout session expired"},
		},
		{
			name:    "unrelated event is ignored",
			event:   "customer.created",
			session: `{"id":"cus_1","object":"customer"}`,
			want:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := stripeEvent(tc.event, tc.session)
			evt, err := g.ParseWebhook([]byte(payload), signedStripe(t, payload))
			require.NoError(t, err)
			assert.Equal(t, tc.want, evt)
		})
	}
}

func TestStripe_ParseWebhook_BadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "http://localhost/ok", "http://localhost/cancel")
	payload := stripeEvent("checkout.session.completed", `{"id":"cs_1"}`)

	h := http.Header{}
	h.Set("Stripe-Signature", "t=1,v1=deadbeef")
	_, err := g.ParseWebhook([]byte(payload), h)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.ParseWebhook([]byte(payload), http.Header{})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripe_SessionParams(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "https://app.test/payments/success", "https://app.test/payments/cancel?x=1")
	in := CheckoutInput{
		PaymentID:     uuid.New(),
		CourseID:      uuid.New(),
		CourseTitle:   "Go Basics",
		AmountCents:   4900,
		Currency:      "USD",
		CustomerEmail: "ada@example.com",
	}

	p := g.sessionParams(in)
	assert.Equal(t, "payment", *p.Mode)
	assert.Equal(t, in.PaymentID.String(), *p.ClientReferenceID)
	assert.Equal(t, "https://app.test/payments/success?payment_id="+in.PaymentID.String(), *p.SuccessURL)
	assert.Contains(t, *p.CancelURL, "x=1")
	assert.Contains(t, *p.CancelURL, "payment_id="+in.PaymentID.String())
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "usd", *p.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(4900), *p.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "Go Basics", *p.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, in.PaymentID.String(), p.Metadata["payment_id"])
	assert.Equal(t, "ada@example.com", *p.CustomerEmail)
}

func midtransBody(serverKey, orderID, statusCode, gross, status, fraud string) []byte {
	sig := midtransSignature(orderID, statusCode, gross, serverKey)
	return []byte(fmt.Sprintf(`{"order_id":%q,"status_code":%q,"gross_amount":%q,"signature_key":%q,"transaction_status":%q,"fraud_status":%q}`,
		orderID, statusCode, gross, sig, status, fraud))
}

func TestMidtrans_ParseWebhook(t *testing.T) {
	const key = "SB-Mid-server-test"
	g := NewMidtransGateway(key, false, "http://localhost/finish")
	oid := uuid.New().String()

	tests := []struct {
		status, fraud string
		want          model.PaymentStatus
		ignored       bool
	}{
		{status: "settlement", want: model.PaymentStatusSucceeded},
		{status: "capture", fraud: "accept", want: model.PaymentStatusSucceeded},
		{status: "capture", fraud: "challenge", ignored: true},
		{status: "pending", ignored: true},
		{status: "deny", want: model.PaymentStatusFailed},
		{status: "cancel", want: model.PaymentStatusFailed},
		{status: "failure", want: model.PaymentStatusFailed},
		{status: "expire", want: model.PaymentStatusExpired},
	}

	for _, tc := range tests {
		t.Run(tc.status+"/"+tc.fraud, func(t *testing.T) {
			evt, err := g.ParseWebhook(midtransBody(key, oid, "200", "150000.00", tc.status, tc.fraud), nil)
			require.NoError(t, err)
			if tc.ignored {
				assert.Nil(t, evt)
				return
			}
			require.NotNil(t, evt)
			assert.Equal(t, oid, evt.PaymentID)
			assert.Equal(t, tc.want, evt.Status)
		})
	}
}

func TestMidtrans_ParseWebhook_Rejects(t *testing.T) {
	g := NewMidtransGateway("right-key", false, "http://localhost/finish")

	_, err := g.ParseWebhook(midtransBody("wrong-key", "o-1", "200", "1000.00", "settlement", ""), nil)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.ParseWebhook([]byte(`{not json`), nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = g.ParseWebhook([]byte(`{"order_id":"o-1"}`), nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestMidtrans_SnapRequest(t *testing.T) {
	g := NewMidtransGateway("key", false, "https://app.test/payments/success")
	in := CheckoutInput{PaymentID: uuid.New(), CourseID: uuid.New(), CourseTitle: "Belajar Go", AmountCents: 150000, Currency: "idr"}

	req, err := g.snapRequest(in)
	require.NoError(t, err)
	assert.Equal(t, in.PaymentID.String(), req.TransactionDetails.OrderID)
	assert.Equal(t, int64(150000), req.TransactionDetails.GrossAmt)
	assert.Len(t, *req.Items, 1)

	in.Currency = "USD"
	_, err = g.snapRequest(in)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = g.CreateCheckout(context.Background(), in)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestNewGateways(t *testing.T) {
	assert.Empty(t, NewGateways(&config.Config{}))

	gw := NewGateways(&config.Config{StripeSecretKey: "sk", MidtransServerKey: "mk"})
	require.Len(t, gw, 2)
	assert.Equal(t, model.PaymentProviderStripe, gw[model.PaymentProviderStripe].Provider())
	assert.Equal(t, model.PaymentProviderMidtrans, gw[model.PaymentProviderMidtrans].Provider())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
