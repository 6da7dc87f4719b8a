package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"credit-analysis-workers/internal/models"
)

// DataHash fingerprints the report content: hex SHA-256 of its JSON encoding. Struct fields
// encode in declaration order, so equal content always hashes equally.
func DataHash(report *models.CreditReport) string {
	if report == nil {
		report = &models.CreditReport{}
	}
	payload, err := json.Marshal(report)
	if err != nil {
		payload = []byte(fmt.Sprintf("%#v", *report))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
