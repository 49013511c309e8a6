// Package messaging formats outbound messaging deep links.
package messaging

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoPhone is returned when a phone number has no digits.
var ErrNoPhone = errors.New("no phone number")

const whatsAppBase = "https://wa.me/"

// DigitsOnly strips everything but 0-9 from phone.
func DigitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink builds a deep link that opens a chat with phone prefilled with text.
func WhatsAppLink(phone, text string) (string, error) {
	digits := DigitsOnly(phone)
	if digits == "" {
		return "", ErrNoPhone
	}
	// Match encodeURIComponent: spaces become %20, not '+'.
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return whatsAppBase + digits + "?text=" + escaped, nil
}

// ReceiptDetails are the fields shown in a shared receipt.
type ReceiptDetails struct {
	Institution   string
	ReceiptNumber string
	StudentName   string
	Amount        decimal.Decimal
	Date          string
	Method        string
	TransactionID string
}

// ReceiptMessage is the fee receipt text.
func ReceiptMessage(d ReceiptDetails) string {
	txn := d.TransactionID
	if txn == "" {
		txn = "N/A"
	}
	return fmt.Sprintf("*FEE PAYMENT RECEIPT*\n\n"+
		"*Institution:* %s\n"+
		"*Receipt No:* %s\n"+
		"*Student:* %s\n"+
		"*Amount:* %s\n"+
		"*Date:* %s\n"+
		"*Method:* %s\n"+
		"*Txn ID:* %s\n\n"+
		"Thank you for your payment! - _Sent via EduPay Cloud_",
		d.Institution, d.ReceiptNumber, d.StudentName, FormatINR(d.Amount), d.Date, d.Method, txn)
}

// ReminderDetails are the fields of a pending-fee reminder.
type ReminderDetails struct {
	Institution string
	StudentName string
	CourseName  string
	SessionID   string
	Balance     decimal.Decimal
}

// ReminderMessage is the pending-fee reminder text.
func ReminderMessage(d ReminderDetails) string {
	return fmt.Sprintf("*PENDING FEE REMINDER*\n\n"+
		"Dear %s,\n"+
		"This is a friendly reminder that you have a pending fee balance of *%s* "+
		"for the %s program (Session: %s) at %s.",
		d.StudentName, FormatINR(d.Balance), d.CourseName, d.SessionID, d.Institution)
}

// FormatINR renders an amount in rupees with Indian digit grouping,
// e.g. ₹1,50,000 or ₹1,234.50.
func FormatINR(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	amount = amount.Abs()

	whole := amount.Truncate(0)
	frac := amount.Sub(whole)

	out := "₹" + groupIndian(whole.String())
	if !frac.IsZero() {
		out += "." + amount.StringFixed(2)[len(whole.String())+1:]
	}
	if neg {
		return "-" + out
	}
	return out
}

// groupIndian groups the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
