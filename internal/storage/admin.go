package storage

import (
	"net/mail"
	"strings"
)

type Invite struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

func (i Invite) Validate() error {
	if err := requireText("email", i.Email); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(i.Email); err != nil {
		return invalid("email", "email is not a valid address")
	}
	return requireText("name", i.Name)
}

type Invitation struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpAuthUrl"`
}

type PasswordInfo struct {
	HasPassword   bool   `json:"hasPassword"`
	LastChangedAt string `json:"lastChangedAt,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
	IsExpired     bool   `json:"isExpired"`
}

// OTP — шестизначный код из приложения-аутентификатора.
func ValidateOTP(otp string) error {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return required("otp")
	}
	if len(otp) != 6 || strings.Trim(otp, "0123456789") != "" {
		return invalid("otp", "otp must be 6 digits")
	}
	return nil
}
