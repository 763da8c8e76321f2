// Package model содержит доменные сущности витрины магазина.
package model

import "time"

// Role описывает уровень привилегий сессии.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Session описывает аутентифицированного пользователя и его роль.
// Роль вычисляется по таблице admin_users и никогда не берётся от клиента.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin сообщает, обладает ли сессия правами оператора.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// User представляет зарегистрированного покупателя.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Product описывает товар каталога. Цена хранится в центах.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"-"`
	Stock       int       `json:"stock"`
	CategoryID  string    `json:"category_id,omitempty"`
	ImageRef    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category описывает раздел каталога.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SelectionLine описывает строку текущего выбора покупателя.
type SelectionLine struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
	ImageRef  string
}

// Subtotal возвращает стоимость строки в центах.
func (l SelectionLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order описывает оформленный заказ. Total фиксируется в момент оформления
// и не пересчитывается по текущим ценам товаров.
type Order struct {
	ID              string
	UserID          string
	CustomerEmail   string
	Status          OrderStatus
	Total           int64
	ShippingAddress string
	CreatedAt       time.Time
	Lines           []OrderLine
}

// OrderLine описывает позицию заказа с ценой на момент покупки.
type OrderLine struct {
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice int64
}

// ShippingDetails содержит данные доставки, введённые при оформлении.
type ShippingDetails struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// Credential содержит данные для входа или регистрации.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FormatCents переводит сумму в центах в десятичную запись с двумя знаками.
func FormatCents(cents int64) float64 {
	return float64(cents) / 100
}

// SessionEvent уведомляет клиента о смене сессии. Session равен nil после выхода.
type SessionEvent struct {
	ClientID string
	Session  *Session
}
