package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	cartdto "github.com/sssssubin/cart-service/api/controllers/cart/dto"
	"github.com/sssssubin/cart-service/api/middleware"
	cartsvc "github.com/sssssubin/cart-service/internal/cart"
	"github.com/sssssubin/cart-service/internal/pricing"
	pkgerrors "github.com/sssssubin/cart-service/pkg/errors"
)

type stubCartService struct {
	view        *cartsvc.View
	err         error
	lastSession string
	lastProduct string
	lastDelta   int
	lastItems   []cartsvc.Line
}

func (s *stubCartService) Get(_ context.Context, sessionID string) (*cartsvc.View, error) {
	s.lastSession = sessionID
	return s.view, s.err
}

func (s *stubCartService) AddProduct(_ context.Context, sessionID, productID string) (*cartsvc.View, error) {
	s.lastSession = sessionID
	s.lastProduct = productID
	return s.view, s.err
}

func (s *stubCartService) ChangeQuantity(_ context.Context, sessionID, productID string, delta int) (*cartsvc.View, error) {
	s.lastSession = sessionID
	s.lastProduct = productID
	s.lastDelta = delta
	return s.view, s.err
}

func (s *stubCartService) RemoveLine(_ context.Context, sessionID, productID string) (*cartsvc.View, error) {
	s.lastSession = sessionID
	s.lastProduct = productID
	return s.view, s.err
}

func (s *stubCartService) SelectProduct(_ context.Context, sessionID, productID string) error {
	s.lastSession = sessionID
	s.lastProduct = productID
	return s.err
}

func (s *stubCartService) Restore(_ context.Context, sessionID string, items []cartsvc.Line) (*cartsvc.View, error) {
	s.lastSession = sessionID
	s.lastItems = items
	return s.view, s.err
}

func testView() *cartsvc.View {
	return &cartsvc.View{
		Lines: []cartsvc.ViewLine{{ProductID: "p1", Name: "Product 1", Price: 10000, Quantity: 2}},
		Quote: pricing.Result{
			Subtotal:      decimal.NewFromInt(20000),
			Total:         decimal.NewFromInt(20000),
			DiscountRate:  decimal.Zero,
			ItemCount:     2,
			LoyaltyPoints: 20,
		},
	}
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))
}

func decodeView(t *testing.T, resp *httptest.ResponseRecorder) cartdto.CartView {
	t.Helper()
	var envelope struct {
		Data cartdto.CartView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestCartFetchSuccess(t *testing.T) {
	service := &stubCartService{view: testView()}
	handler := CartFetch(service, nil)

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	view := decodeView(t, resp)
	if len(view.Items) != 1 || view.Items[0].ProductID != "p1" {
		t.Fatalf("unexpected items %+v", view.Items)
	}
	if view.Summary.Total != "20000" || view.Summary.LoyaltyPoints != 20 {
		t.Fatalf("unexpected summary %+v", view.Summary)
	}
	if service.lastSession != "sess-1" {
		t.Fatalf("session not forwarded, got %q", service.lastSession)
	}
}

func TestCartFetchMissingSessionContext(t *testing.T) {
	handler := CartFetch(&stubCartService{view: testView()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	service := &stubCartService{view: testView()}
	handler := CartAddItem(service, nil)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"p1"}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.lastProduct != "p1" {
		t.Fatalf("product not forwarded, got %q", service.lastProduct)
	}
}

func TestCartAddItemRejectsEmptyBody(t *testing.T) {
	handler := CartAddItem(&stubCartService{view: testView()}, nil)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemOutOfStock(t *testing.T) {
	service := &stubCartService{err: pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock")}
	handler := CartAddItem(service, nil)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"p4"}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCartChangeQuantityForwardsURLParam(t *testing.T) {
	service := &stubCartService{view: testView()}
	handler := CartChangeQuantity(service, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", "p2")
	req := withSession(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/p2", strings.NewReader(`{"delta":-1}`)))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.lastProduct != "p2" || service.lastDelta != -1 {
		t.Fatalf("params not forwarded: product=%q delta=%d", service.lastProduct, service.lastDelta)
	}
}

func TestCartChangeQuantityAcceptsZeroDelta(t *testing.T) {
	service := &stubCartService{view: testView()}
	handler := CartChangeQuantity(service, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", "p2")
	req := withSession(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/p2", strings.NewReader(`{"delta":0}`)))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.lastProduct != "p2" || service.lastDelta != 0 {
		t.Fatalf("expected zero delta forwarded: product=%q delta=%d", service.lastProduct, service.lastDelta)
	}
}

func TestCartSelectSuccess(t *testing.T) {
	service := &stubCartService{}
	handler := CartSelect(service, nil)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/select", strings.NewReader(`{"productId":"p3"}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.lastProduct != "p3" {
		t.Fatalf("product not forwarded, got %q", service.lastProduct)
	}
}

func TestCartRestoreForwardsItems(t *testing.T) {
	service := &stubCartService{view: testView()}
	handler := CartRestore(service, nil)

	body := `{"items":[{"productId":"p1","quantity":3},{"productId":"p5","quantity":1}]}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/restore", strings.NewReader(body)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(service.lastItems) != 2 || service.lastItems[0].Quantity != 3 {
		t.Fatalf("items not forwarded: %+v", service.lastItems)
	}
}
