package httphandler

import (
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/cart (200 OK)
// POST v1/cart/items JSON {"product_id"} (200 OK, 400 Bad request, 404 Not found)
// PUT v1/cart/items/{id} JSON {"quantity"} (200 OK, 400 Bad request)
// DELETE v1/cart/items/{id} (200 OK)
// DELETE v1/cart (200 OK)

type CartHandler struct {
	cart port.CartManager
}

func RegisterCart(mux *http.ServeMux, cart port.CartManager) {
	h := CartHandler{cart}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("PUT /v1/cart/items/{id}", h.UpdateQuantity)
	mux.HandleFunc("DELETE /v1/cart/items/{id}", h.RemoveItem)
	mux.HandleFunc("DELETE /v1/cart", h.Clear)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartFromDomain(h.cart.Cart()))
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"

	var req AddItemRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, domain.NewValidationError("product_id", domain.MsgRequired, nil))
		return
	}

	c, err := h.cart.AddItem(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(c))
}

func (h CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateQuantity"

	var req UpdateQuantityRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	if req.Quantity == nil {
		writeError(w, domain.NewValidationError(
			"quantity", domain.MsgInvalidQuantity, domain.ErrInvalidQuantity,
		))
		return
	}

	c, err := h.cart.UpdateQuantity(r.Context(), r.PathValue("id"), *req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(c))
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart.RemoveItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartFromDomain(c))
}

func (h CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartFromDomain(h.cart.Clear(r.Context())))
}
