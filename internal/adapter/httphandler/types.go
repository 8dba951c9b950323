package httphandler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Product struct {
		ID          string      `json:"id"`
		Title       string      `json:"title"`
		Price       json.Number `json:"price"`
		ImageURL    string      `json:"image_url"`
		Category    string      `json:"category"`
		Description string      `json:"description"`
		CreatedAt   time.Time   `json:"created_at"`
	}

	// ProductInput accepts the price as a JSON number or string.
	ProductInput struct {
		Title       string          `json:"title"`
		Price       json.RawMessage `json:"price"`
		ImageURL    string          `json:"image_url"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
	}

	CartItem struct {
		Product
		Quantity int `json:"quantity"`
	}

	Cart struct {
		Items       []CartItem  `json:"items"`
		TotalItems  int         `json:"total_items"`
		TotalAmount json.Number `json:"total_amount"`
	}

	AddItemRequest struct {
		ProductID string `json:"product_id"`
	}

	UpdateQuantityRequest struct {
		Quantity *int `json:"quantity"`
	}

	CatalogStatus struct {
		Loading   bool       `json:"loading"`
		Error     string     `json:"error,omitempty"`
		Products  int        `json:"products"`
		FetchedAt *time.Time `json:"fetched_at,omitempty"`
	}

	SignUpRequest struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}

	SignInRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	User struct {
		UID         string `json:"uid"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}

	Session struct {
		SignedIn bool   `json:"signed_in"`
		User     *User  `json:"user,omitempty"`
		IsAdmin  bool   `json:"is_admin"`
		Token    string `json:"token,omitempty"`
	}

	Notification struct {
		Kind    string    `json:"kind"`
		Message string    `json:"message"`
		At      time.Time `json:"at"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func productFromDomain(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Title:       p.Title,
		Price:       json.Number(p.Price.String()),
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func productsFromDomain(ps []domain.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = productFromDomain(p)
	}
	return out
}

func cartFromDomain(c domain.Cart) Cart {
	out := Cart{
		Items:       make([]CartItem, len(c.Items)),
		TotalItems:  c.TotalItems,
		TotalAmount: json.Number(c.TotalAmount.String()),
	}
	for i, it := range c.Items {
		out.Items[i] = CartItem{Product: productFromDomain(it.Product), Quantity: it.Quantity}
	}
	return out
}

func (in ProductInput) toDomain() domain.ProductInput {
	return domain.ProductInput{
		Title:       in.Title,
		Price:       priceText(in.Price),
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		Description: in.Description,
	}
}

// priceText returns the form text of a price. An invalid price is passed
// through as is for the product validation to reject.
func priceText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	d, err := domain.PriceFromJSON(raw)
	if err != nil {
		return string(bytes.Trim(raw, `"`))
	}
	return d.String()
}

func sessionFromDomain(s domain.Session, signedIn bool, withToken bool) Session {
	if !signedIn {
		return Session{}
	}
	out := Session{
		SignedIn: true,
		User: &User{
			UID:         s.User.UID,
			Email:       s.User.Email,
			DisplayName: s.User.DisplayName,
		},
		IsAdmin: s.IsAdmin,
	}
	if withToken {
		out.Token = s.Token
	}
	return out
}

func catalogStatusFromDomain(st domain.CatalogStatus) CatalogStatus {
	out := CatalogStatus{
		Loading:  st.Loading,
		Error:    st.Err,
		Products: st.Products,
	}
	if !st.FetchedAt.IsZero() {
		at := st.FetchedAt
		out.FetchedAt = &at
	}
	return out
}

func notificationsFromDomain(ns []domain.Notification) []Notification {
	out := make([]Notification, len(ns))
	for i, n := range ns {
		out[i] = Notification{Kind: string(n.Kind), Message: n.Message, At: n.At}
	}
	return out
}
