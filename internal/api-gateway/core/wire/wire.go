// Package wire holds the JSON bodies exchanged between the bakery API and its
// clients. Both the HTTP handlers and the storefront client use these types.
package wire

import "github.com/shopspring/decimal"

// Request bodies use the storefront's camelCase field names. Money may be
// sent as a JSON number or a string.

type CreateOrderRequest struct {
	CustomerName   string               `json:"customerName"`
	Phone          string               `json:"phone"`
	SecondaryPhone string               `json:"secondaryPhone,omitempty"`
	Address        string               `json:"address,omitempty"`
	City           string               `json:"city,omitempty"`
	Pickup         bool                 `json:"pickup"`
	DeliveryFee    decimal.Decimal      `json:"deliveryFee"`
	Total          decimal.Decimal      `json:"total"`
	PaymentMethod  string               `json:"paymentMethod"`
	Notes          string               `json:"notes,omitempty"`
	Items          []CreateOrderItemDTO `json:"items"`
}

type CreateOrderItemDTO struct {
	ProductID       int64               `json:"productId"`
	ProductName     string              `json:"productName"`
	Category        string              `json:"category,omitempty"`
	Quantity        int                 `json:"quantity"`
	UnitPrice       decimal.Decimal     `json:"unitPrice"`
	SelectedOptions []SelectedOptionRef `json:"selectedOptions"`
	Notes           string              `json:"notes,omitempty"`
}

type SelectedOptionRef struct {
	OptionID int64 `json:"optionId"`
}

type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
}

type UpdateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Responses render money with two decimals as strings.

type OptionGroupResponse struct {
	ID            int64            `json:"id"`
	ProductID     int64            `json:"product_id"`
	Name          string           `json:"name"`
	Required      bool             `json:"required"`
	SelectionType string           `json:"selection_type"`
	MinSelect     int              `json:"min_select"`
	MaxSelect     int              `json:"max_select"`
	DisplayOrder  int              `json:"display_order"`
	Options       []OptionResponse `json:"options"`
}

type OptionResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Price            string `json:"price"`
	ReplaceBasePrice bool   `json:"replace_base_price"`
	DisplayOrder     int    `json:"display_order"`
}

type CityResponse struct {
	City  string `json:"city"`
	Price string `json:"price"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	CustomerName   string              `json:"customer_name"`
	Phone          string              `json:"phone"`
	SecondaryPhone string              `json:"secondary_phone,omitempty"`
	Address        string              `json:"address,omitempty"`
	City           string              `json:"city,omitempty"`
	Pickup         bool                `json:"pickup"`
	PaymentMethod  string              `json:"payment_method"`
	Notes          string              `json:"notes,omitempty"`
	DeliveryFee    string              `json:"delivery_fee"`
	Subtotal       string              `json:"subtotal"`
	Total          string              `json:"total"`
	Status         string              `json:"status"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
}

type OrderItemResponse struct {
	ID          int64                    `json:"id"`
	ProductID   int64                    `json:"product_id"`
	ProductName string                   `json:"product_name"`
	Category    string                   `json:"category,omitempty"`
	Quantity    int                      `json:"quantity"`
	UnitPrice   string                   `json:"unit_price"`
	LineTotal   string                   `json:"line_total"`
	Options     []SelectedOptionResponse `json:"options"`
	Notes       string                   `json:"notes,omitempty"`
}

type SelectedOptionResponse struct {
	OptionID         int64  `json:"option_id"`
	Name             string `json:"name"`
	Price            string `json:"price"`
	ReplaceBasePrice bool   `json:"replace_base_price"`
}

type StatusLogResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	ChangedAt string `json:"changed_at"`
}

type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError names one rejected input of a 400 or 422 answer.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
