// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/model"
)

// IsValidEmail проверяет, что строка является одиночным адресом без отображаемого имени.
func IsValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && addr.Name == ""
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credential проверяет учётные данные перед входом или регистрацией.
func Credential(cred model.Credential) error {
	if !IsValidEmail(cred.Email) {
		return apperror.Validation("invalid email %q", cred.Email)
	}
	if cred.Password == "" {
		return apperror.Validation("password is required")
	}
	if len(cred.Password) > MaxPasswordBytes {
		return apperror.Validation("password is longer than %d bytes", MaxPasswordBytes)
	}
	return nil
}

// MaxPasswordBytes совпадает с пределом длины входа bcrypt.
const MaxPasswordBytes = 72

// Shipping проверяет обязательные поля адреса доставки.
func Shipping(d model.ShippingDetails) error {
	if strings.TrimSpace(d.FullName) == "" {
		return apperror.Validation("full name is required")
	}
	if strings.TrimSpace(d.Address) == "" {
		return apperror.Validation("address is required")
	}
	return nil
}
