package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the identity record that carries the OTP credential.
// Code and expiry are set together on issue and cleared together on
// successful verification or by the expiry sweep.
type User struct {
	gorm.Model
	Name   string `gorm:"not null"`
	Email  string `gorm:"index"`
	Mobile string `gorm:"index"`

	OTPCode   *string    `json:"-" gorm:"column:otp_code"`
	OTPExpiry *time.Time `gorm:"column:otp_expiry;index"`
}

// HasActiveOTP reports whether an unexpired code is present at the given time
func (u *User) HasActiveOTP(now time.Time) bool {
	return u.OTPCode != nil && u.OTPExpiry != nil && now.Before(*u.OTPExpiry)
}
