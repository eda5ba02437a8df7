package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appcart "github.com/minshop/qrp/internal/application/cart"
	appcatalog "github.com/minshop/qrp/internal/application/catalog"
	appcheckout "github.com/minshop/qrp/internal/application/checkout"
	apppurchase "github.com/minshop/qrp/internal/application/purchase"
	domcart "github.com/minshop/qrp/internal/domain/cart"
	domcheckout "github.com/minshop/qrp/internal/domain/checkout"
	dompayment "github.com/minshop/qrp/internal/domain/payment"
	domproduct "github.com/minshop/qrp/internal/domain/product"
	dompurchase "github.com/minshop/qrp/internal/domain/purchase"
	"github.com/minshop/qrp/internal/pkg/logging"
	"go.uber.org/zap"
)

type Handler struct {
	catalog  *appcatalog.Service
	carts    *appcart.Service
	ledger   *apppurchase.Service
	checkout *appcheckout.Service
}

func NewHandler(
	catalog *appcatalog.Service,
	carts *appcart.Service,
	ledger *apppurchase.Service,
	checkout *appcheckout.Service,
) *Handler {
	return &Handler{
		catalog:  catalog,
		carts:    carts,
		ledger:   ledger,
		checkout: checkout,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /admin/products", h.handleCreateProduct)
	mux.HandleFunc("GET /admin/products", h.handleListProducts)
	mux.HandleFunc("GET /admin/products/{id}", h.handleGetProduct)
	mux.HandleFunc("PATCH /admin/products/{id}", h.handleUpdateProduct)
	mux.HandleFunc("DELETE /admin/products/{id}", h.handleDeleteProduct)
	mux.HandleFunc("GET /admin/products/{id}/barcode", h.handleProductBarcode)

	mux.HandleFunc("GET /admin/purchases", h.handleListPurchases)
	mux.HandleFunc("GET /admin/purchases/{id}", h.handleGetPurchase)
	mux.HandleFunc("POST /admin/purchases/{id}/refund", h.handleRefund)

	mux.HandleFunc("GET /cart", h.handleCartDetail)
	mux.HandleFunc("POST /cart/items/{productID}", h.handleCartAdd)
	mux.HandleFunc("POST /cart/items/{productID}/subtract", h.handleCartSubtract)
	mux.HandleFunc("DELETE /cart/items/{productID}", h.handleCartRemove)

	mux.HandleFunc("POST /payment/ready", h.handlePaymentReady)
	mux.HandleFunc("GET /payment/success", h.handlePaymentSuccess)
	mux.HandleFunc("GET /payment/cancel", h.handlePaymentCancel)
	mux.HandleFunc("GET /payment/fail", h.handlePaymentFail)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type productResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

func toProductResponse(p *domproduct.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
	}
}

type createProductRequest struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), appcatalog.CreateProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		p, err := h.catalog.FindProductByName(r.Context(), name)
		if err != nil {
			writeDomainError(r, w, err)
			return
		}
		writeJSON(w, http.StatusOK, []productResponse{toProductResponse(p)})
		return
	}

	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.FindProductByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type updateProductRequest struct {
	Name     *string `json:"name"`
	Price    *int    `json:"price"`
	Quantity *int    `json:"quantity"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), appcatalog.UpdateProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProductBarcode(w http.ResponseWriter, r *http.Request) {
	image, err := h.catalog.ProductBarcode(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}

type purchaseItemResponse struct {
	ProductID  string `json:"product_id"`
	OrderPrice int    `json:"order_price"`
	OrderQty   int    `json:"order_quantity"`
}

type purchaseResponse struct {
	ID          string                 `json:"id"`
	State       dompurchase.State      `json:"state"`
	CreatedAt   time.Time              `json:"created_at"`
	TotalAmount int                    `json:"total_amount"`
	Items       []purchaseItemResponse `json:"items"`
}

func toPurchaseResponse(p *dompurchase.Purchase) purchaseResponse {
	items := make([]purchaseItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, purchaseItemResponse{
			ProductID:  item.ProductID,
			OrderPrice: item.OrderPrice,
			OrderQty:   item.OrderQty,
		})
	}
	return purchaseResponse{
		ID:          p.ID,
		State:       p.State,
		CreatedAt:   p.CreatedAt,
		TotalAmount: p.TotalAmount(),
		Items:       items,
	}
}

func (h *Handler) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")

	var (
		purchases []*dompurchase.Purchase
		err       error
	)
	if fromParam != "" || toParam != "" {
		from, to, parseErr := parseDateRange(fromParam, toParam)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr)
			return
		}
		purchases, err = h.ledger.ListPurchasesByDateRange(r.Context(), from, to)
	} else {
		purchases, err = h.ledger.ListPurchases(r.Context())
	}
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.GetPurchase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.Refund(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}

type cartLineResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal int             `json:"subtotal"`
}

type cartResponse struct {
	Items       []cartLineResponse `json:"items"`
	TotalAmount int                `json:"total_amount"`
}

func (h *Handler) handleCartDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.carts.Detail(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	resp := cartResponse{Items: make([]cartLineResponse, 0, len(detail.Lines))}
	for _, line := range detail.Lines {
		resp.Items = append(resp.Items, cartLineResponse{
			Product:  toProductResponse(line.Product),
			Quantity: line.Quantity,
			Subtotal: line.Subtotal,
		})
	}
	resp.TotalAmount = detail.TotalAmount
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Add(r.Context(), SessionID(r.Context()), r.PathValue("productID"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCartSubtract(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Subtract(r.Context(), SessionID(r.Context()), r.PathValue("productID"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Remove(r.Context(), SessionID(r.Context()), r.PathValue("productID"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type paymentReadyResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"next_redirect_mobile_url"`
}

func (h *Handler) handlePaymentReady(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkout.Ready(r.Context(), SessionID(r.Context()))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentReadyResponse{
		OrderID:     result.OrderID,
		RedirectURL: result.RedirectURL,
	})
}

type paymentSuccessResponse struct {
	ApprovalID    string `json:"approval_id"`
	TransactionID string `json:"transaction_id"`
	PaymentMethod string `json:"payment_method"`
	ItemName      string `json:"item_name"`
}

func (h *Handler) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("pg_token")
	if token == "" {
		writeError(w, http.StatusBadRequest, errors.New("pg_token is required"))
		return
	}

	resp, err := h.checkout.Approve(r.Context(), SessionID(r.Context()), token)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentSuccessResponse{
		ApprovalID:    resp.ApprovalID,
		TransactionID: resp.TransactionID,
		PaymentMethod: resp.PaymentMethod,
		ItemName:      resp.ItemName,
	})
}

func (h *Handler) handlePaymentCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Cancel(r.Context(), SessionID(r.Context())); err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) handlePaymentFail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}

func parseDateRange(fromParam, toParam string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()

	if fromParam != "" {
		parsed, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC 3339")
		}
		from = parsed
	}
	if toParam != "" {
		parsed, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC 3339")
		}
		to = parsed
	}
	return from, to, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domproduct.ErrNotFound),
		errors.Is(err, dompurchase.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domproduct.ErrDuplicateName),
		errors.Is(err, domproduct.ErrIntegrityViolation),
		errors.Is(err, domproduct.ErrInsufficientStock),
		errors.Is(err, dompurchase.ErrAlreadyRefunded),
		errors.Is(err, domcheckout.ErrNoPendingPayment):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domproduct.ErrInvalidName),
		errors.Is(err, domproduct.ErrInvalidPrice),
		errors.Is(err, domproduct.ErrInvalidQuantity),
		errors.Is(err, dompurchase.ErrNoItems),
		errors.Is(err, dompurchase.ErrInvalidItem),
		errors.Is(err, domcart.ErrEmpty),
		errors.Is(err, domcart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, dompayment.ErrGateway):
		writeError(w, http.StatusBadGateway, err)
	default:
		logging.FromContext(r.Context()).Error("internal_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
