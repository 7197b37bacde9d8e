package messaging

import "strings"

const whatsappPrefix = "whatsapp:"

// NormalizePhone strips the whatsapp: prefix and every non-digit
// character, keeping only the bare number used as the session key.
func NormalizePhone(value string) string {
	value = strings.TrimSpace(strings.TrimPrefix(value, whatsappPrefix))
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppAddress formats a normalized phone for the Twilio WhatsApp
// channel.
func WhatsAppAddress(phone string) string {
	digits := NormalizePhone(phone)
	if digits == "" {
		return ""
	}
	return whatsappPrefix + "+" + digits
}
