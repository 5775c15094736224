package orders

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const qrPayloadVersion = "v1"

var ErrInvalidQRPayload = errors.New("invalid qr payload")

// BuildQRPayload produces the scannable ticket payload:
// "v1:<ticketID>:<eventID>:<seatID>:<hmac>". The HMAC covers the
// version and all three ids so a payload cannot be rebound to another
// seat or event.
func BuildQRPayload(ticketID, eventID, seatID uuid.UUID, secret string) string {
	body := fmt.Sprintf("%s:%s:%s:%s", qrPayloadVersion, ticketID, eventID, seatID)
	return body + ":" + signQRBody(body, secret)
}

// VerifyQRPayload checks the signature and returns the embedded ids.
func VerifyQRPayload(payload, secret string) (ticketID, eventID, seatID uuid.UUID, err error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 5 || parts[0] != qrPayloadVersion {
		return uuid.Nil, uuid.Nil, uuid.Nil, ErrInvalidQRPayload
	}

	body := strings.Join(parts[:4], ":")
	expected := signQRBody(body, secret)
	if !hmac.Equal([]byte(expected), []byte(parts[4])) {
		return uuid.Nil, uuid.Nil, uuid.Nil, ErrInvalidQRPayload
	}

	ticketID, err = uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, ErrInvalidQRPayload
	}
	eventID, err = uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, ErrInvalidQRPayload
	}
	seatID, err = uuid.Parse(parts[3])
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, ErrInvalidQRPayload
	}
	return ticketID, eventID, seatID, nil
}

func signQRBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
