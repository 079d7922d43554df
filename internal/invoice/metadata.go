package invoice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// Metadata identifies one issued invoice.
type Metadata struct {
	ID       string    `json:"invoice_id"`
	IssuedAt time.Time `json:"issued_at"`
}

var idPattern = regexp.MustCompile(`^INV-\d{8}-\d{4}$`)

// NewMetadata mints an identifier of the form INV-YYYYMMDD-NNNN where NNNN
// is a random number in [1000, 9999].
func NewMetadata(now time.Time) Metadata {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return Metadata{
		ID:       fmt.Sprintf("INV-%s-%04d", now.Format("20060102"), 1000+suffix),
		IssuedAt: now,
	}
}

// ValidID reports whether s matches the invoice identifier format. Used to
// reject path traversal in download and artifact lookups.
func ValidID(s string) bool { return idPattern.MatchString(s) }
