// Package token generates the human-facing identifiers used on
// itineraries: record locators, ticket numbers and boarding pass
// numbers. All identifiers come from crypto/rand.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// pnrAlphabet deliberately includes digits and uppercase letters only,
// matching what check-in kiosks and call centers can read back.
const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PNRLength is the length of a record locator
const PNRLength = 6

// GeneratePNR returns a random 6-character record locator
func GeneratePNR() (string, error) {
	var sb strings.Builder
	sb.Grow(PNRLength)

	max := big.NewInt(int64(len(pnrAlphabet)))
	for i := 0; i < PNRLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate PNR: %w", err)
		}
		sb.WriteByte(pnrAlphabet[n.Int64()])
	}

	return sb.String(), nil
}

// GenerateTicketNumber returns a ticket number of the form TK followed
// by 8 uppercase hex characters
func GenerateTicketNumber() (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", fmt.Errorf("failed to generate ticket number: %w", err)
	}
	return "TK" + suffix, nil
}

// GenerateBoardingPassNumber returns a boarding pass number of the
// form BP followed by 12 uppercase hex characters
func GenerateBoardingPassNumber() (string, error) {
	suffix, err := randomHex(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate boarding pass number: %w", err)
	}
	return "BP" + suffix, nil
}

func randomHex(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
