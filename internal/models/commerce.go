package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product 商品
type Product struct {
	BaseModel
	SKU        *string        `json:"sku" gorm:"size:64"`
	Name       string         `json:"name" gorm:"not null;size:255"`
	Slug       string         `json:"slug" gorm:"uniqueIndex;not null;size:191"`
	PriceCents int64          `json:"price_cents" gorm:"not null;default:0"`
	Currency   string         `json:"currency" gorm:"size:3;default:'USD'"`
	Stock      int            `json:"stock" gorm:"default:0"`
	Status     string         `json:"status" gorm:"default:'draft';size:20"`
	Data       datatypes.JSON `json:"data"`
}

// TableName 表名
func (p *Product) TableName() string {
	return "products"
}

// Order 订单，支付回调只会推进 Status/PaidAt
type Order struct {
	BaseModel
	Number           string      `json:"number" gorm:"uniqueIndex;not null;size:32"`
	Status           string      `json:"status" gorm:"default:'pending';size:20"`
	Email            string      `json:"email" gorm:"size:191"`
	TotalCents       int64       `json:"total_cents" gorm:"not null;default:0"`
	Currency         string      `json:"currency" gorm:"size:3;default:'USD'"`
	PaymentProvider  string      `json:"payment_provider" gorm:"size:20"` // stripe / paypal
	PaymentReference string      `json:"payment_reference" gorm:"size:191;index"`
	PaidAt           *time.Time  `json:"paid_at"`
	Items            []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (o *Order) TableName() string {
	return "orders"
}

// OrderItem 订单明细，引用 orders 与 products
type OrderItem struct {
	ID             uint     `json:"id" gorm:"primarykey"`
	OrderID        uint     `json:"order_id" gorm:"not null;index"`
	ProductID      uint     `json:"product_id" gorm:"not null;index"`
	Quantity       int      `json:"quantity" gorm:"not null;default:1"`
	UnitPriceCents int64    `json:"unit_price_cents" gorm:"not null"`
	Product        *Product `json:"-" gorm:"foreignKey:ProductID"`
}

// TableName 表名
func (oi *OrderItem) TableName() string {
	return "order_items"
}

// PaymentEvent 支付服务商回调事件，(provider, event_id) 幂等
type PaymentEvent struct {
	BaseModel
	Provider    string         `json:"provider" gorm:"not null;size:20;uniqueIndex:idx_payment_events_provider_event"`
	EventID     string         `json:"event_id" gorm:"not null;size:191;uniqueIndex:idx_payment_events_provider_event"`
	OrderID     *uint          `json:"order_id" gorm:"index"`
	Type        string         `json:"type" gorm:"size:100"`
	Payload     datatypes.JSON `json:"payload"`
	ProcessedAt *time.Time     `json:"processed_at"`
}

// TableName 表名
func (e *PaymentEvent) TableName() string {
	return "payment_events"
}
