package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket codes use an unambiguous alphabet: no 0/O, 1/I/L
const ticketAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const ticketCodeLength = 10

// GenerateTicketCode generates a short human-readable ticket code,
// e.g. "TKT-7GQ2MNXR4C". Uniqueness is enforced by the database index,
// not by the generator.
func GenerateTicketCode() string {
	buf := make([]byte, ticketCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// Fallback keeps registrations flowing if the entropy source fails
		return fmt.Sprintf("TKT-%X", time.Now().UnixNano())
	}

	var sb strings.Builder
	sb.Grow(len("TKT-") + ticketCodeLength)
	sb.WriteString("TKT-")
	for _, b := range buf {
		sb.WriteByte(ticketAlphabet[int(b)%len(ticketAlphabet)])
	}
	return sb.String()
}

// GenerateUUID generates a random UUID string
func GenerateUUID() string {
	return uuid.New().String()
}
