package entity

import "time"

// DeliveryToken is the record behind a QR reset link while it is live.
//
// It is stored in the cache under the keyed hash of the opaque token, so the
// plaintext token only ever exists inside the emailed link. SessionID links
// the token back to the browser flow session that requested it, because the
// device scanning the QR code does not carry the flow cookie.
type DeliveryToken struct {
	SubjectID int64     `json:"subject_id"`
	SessionID string    `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`
}
