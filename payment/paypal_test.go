package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/plutov/paypal/v4"
)

type mockPaypal struct {
	decline   bool
	invoiceID string
	value     string
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{"access_token": "token", "token_type": "Bearer", "expires_in": 32400}
		web.Respond(context.Background(), w, tok, http.StatusOK)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil || len(pu.Units) != 1 {
			web.Respond(context.Background(), w, nil, http.StatusBadRequest)
			return
		}

		m.invoiceID = pu.Units[0].InvoiceID
		m.value = pu.Units[0].Amount.Value
		web.Respond(context.Background(), w, paypal.Order{ID: "paypal-1", Status: "CREATED"}, http.StatusCreated)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.decline {
			body := map[string]any{
				"name":    "UNPROCESSABLE_ENTITY",
				"message": "The instrument presented was declined.",
				"details": []map[string]any{{"issue": "INSTRUMENT_DECLINED"}},
			}
			web.Respond(context.Background(), w, body, http.StatusUnprocessableEntity)
			return
		}
		web.Respond(context.Background(), w, paypal.Order{ID: mux.Vars(r)["id"], Status: "COMPLETED"}, http.StatusCreated)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

func newPaypal(t *testing.T, m *mockPaypal) *Paypal {
	srv := httptest.NewServer(m.handle())
	t.Cleanup(srv.Close)

	c, err := paypal.NewClient("client", "secret", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return NewPaypal(c)
}

func TestPaypalCapture(t *testing.T) {
	m := &mockPaypal{}
	p := newPaypal(t, m)

	r, err := p.Capture(context.Background(), Charge{IdempotencyKey: "key-1", ItemID: "b1", Amount: 250, Currency: "INR"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if r.Reference != "paypal-1" || r.Provider != "paypal" {
		t.Fatalf("unexpected receipt %+v", r)
	}
	if m.invoiceID != "key-1" {
		t.Fatalf("idempotency key not sent as invoice id: %q", m.invoiceID)
	}
	if m.value != "250" {
		t.Fatalf("expected value 250, got %q", m.value)
	}
}

func TestPaypalCaptureDeclined(t *testing.T) {
	p := newPaypal(t, &mockPaypal{decline: true})

	_, err := p.Capture(context.Background(), Charge{IdempotencyKey: "key-2", Amount: 250, Currency: "INR"})
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
}
