package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appcart "github.com/minshop/qrp/internal/application/cart"
	appcatalog "github.com/minshop/qrp/internal/application/catalog"
	appcheckout "github.com/minshop/qrp/internal/application/checkout"
	apppurchase "github.com/minshop/qrp/internal/application/purchase"
	dompayment "github.com/minshop/qrp/internal/domain/payment"
	"github.com/minshop/qrp/internal/infrastructure/memory"
	"github.com/minshop/qrp/internal/infrastructure/observability"
	"github.com/stretchr/testify/require"
)

type seqIDGenerator struct{ n int }

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type stubEncoder struct{}

func (stubEncoder) Encode(content string) ([]byte, error) {
	return []byte("png:" + content), nil
}

type stubGateway struct{ fail bool }

func (g stubGateway) Ready(context.Context, dompayment.ReadyRequest) (*dompayment.ReadyResponse, error) {
	if g.fail {
		return nil, dompayment.ErrGateway
	}
	return &dompayment.ReadyResponse{TransactionID: "T1", RedirectURL: "https://pay.example/m"}, nil
}

func (g stubGateway) Approve(_ context.Context, req dompayment.ApproveRequest) (*dompayment.ApproveResponse, error) {
	if g.fail {
		return nil, dompayment.ErrGateway
	}
	return &dompayment.ApproveResponse{ApprovalID: "A1", TransactionID: req.TransactionID}, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	products := memory.NewProductRepository()
	purchases := memory.NewPurchaseRepository()
	sessions := memory.NewSessionStore(time.Minute)
	metrics := observability.NopMetrics()
	idGen := &seqIDGenerator{}

	catalogSvc := appcatalog.NewService(products, purchases, idGen, stubEncoder{})
	cartSvc := appcart.NewService(products, sessions)
	ledgerSvc := apppurchase.NewService(products, purchases, idGen, metrics)
	checkoutSvc := appcheckout.NewService(cartSvc, ledgerSvc, stubGateway{}, sessions, idGen, metrics)

	handler := NewHandler(catalogSvc, cartSvc, ledgerSvc, checkoutSvc)
	server := httptest.NewServer(SessionMiddleware(time.Minute)(handler.Router()))
	t.Cleanup(server.Close)
	return server
}

// newClient returns a cookie-carrying client so consecutive calls share one
// session.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func do(t *testing.T, client *http.Client, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestProductLifecycle(t *testing.T) {
	server := newServer(t)
	client := newClient(t)

	resp, body := do(t, client, http.MethodPost, server.URL+"/admin/products", `{"name":"americano","price":3000,"quantity":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)

	resp, _ = do(t, client, http.MethodPost, server.URL+"/admin/products", `{"name":"americano","price":1,"quantity":1}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, client, http.MethodPatch, server.URL+"/admin/products/"+created.ID, `{"price":3500}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
	}
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Equal(t, "americano", updated.Name)
	require.Equal(t, 3500, updated.Price)

	resp, _ = do(t, client, http.MethodGet, server.URL+"/admin/products/ghost", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, client, http.MethodGet, server.URL+"/admin/products/"+created.ID+"/barcode", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	require.Equal(t, "png:"+created.ID, string(body))

	resp, _ = do(t, client, http.MethodDelete, server.URL+"/admin/products/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSessionCookieAssigned(t *testing.T) {
	server := newServer(t)

	resp, err := http.Get(server.URL + "/cart")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.NotEmpty(t, sessionCookie.Value)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	server := newServer(t)
	client := newClient(t)

	_, body := do(t, client, http.MethodPost, server.URL+"/admin/products", `{"name":"americano","price":3000,"quantity":10}`)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ := do(t, client, http.MethodPost, server.URL+"/cart/items/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, client, http.MethodPost, server.URL+"/cart/items/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, client, http.MethodGet, server.URL+"/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		TotalAmount int `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(body, &detail))
	require.Equal(t, 6000, detail.TotalAmount)

	resp, body = do(t, client, http.MethodPost, server.URL+"/payment/ready", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ready struct {
		RedirectURL string `json:"next_redirect_mobile_url"`
	}
	require.NoError(t, json.Unmarshal(body, &ready))
	require.Equal(t, "https://pay.example/m", ready.RedirectURL)

	resp, _ = do(t, client, http.MethodGet, server.URL+"/payment/success?pg_token=tok", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// committed: cart empty, purchase recorded, refund works exactly once
	resp, body = do(t, client, http.MethodGet, server.URL+"/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &after))
	require.Empty(t, after.Items)

	resp, body = do(t, client, http.MethodGet, server.URL+"/admin/purchases", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var purchases []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &purchases))
	require.Len(t, purchases, 1)

	resp, _ = do(t, client, http.MethodPost, server.URL+"/admin/purchases/"+purchases[0].ID+"/refund", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, client, http.MethodPost, server.URL+"/admin/purchases/"+purchases[0].ID+"/refund", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPaymentReadyEmptyCart(t *testing.T) {
	server := newServer(t)
	client := newClient(t)

	resp, _ := do(t, client, http.MethodPost, server.URL+"/payment/ready", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentSuccessWithoutPending(t *testing.T) {
	server := newServer(t)
	client := newClient(t)

	resp, _ := do(t, client, http.MethodGet, server.URL+"/payment/success?pg_token=tok", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}
