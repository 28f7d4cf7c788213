package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BookingQRData serializes a booking into the payload embedded in its QR
// code: booking and event identifiers plus an HMAC so entry validation can
// trust a scan without a lookup round-trip before the signature check.
func BookingQRData(bookingID, eventID, userID uuid.UUID, secret string) string {
	signature := BookingSignature(bookingID, eventID, userID, secret)
	return fmt.Sprintf("booking:%s;event:%s;signature:%s",
		bookingID.String(),
		eventID.String(),
		signature,
	)
}

func BookingSignature(bookingID, eventID, userID uuid.UUID, secret string) string {
	data := fmt.Sprintf("%s:%s:%s", bookingID.String(), eventID.String(), userID.String())
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func ExtractBookingIDFromQRData(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "booking:") || !strings.HasPrefix(parts[2], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "booking:"))
}

func ValidateBookingQRData(bookingID, eventID, userID uuid.UUID, secret, qrData string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "signature:") {
		return false
	}

	signature := strings.TrimPrefix(parts[2], "signature:")
	expected := BookingSignature(bookingID, eventID, userID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
