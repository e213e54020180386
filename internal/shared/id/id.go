// Package id generates transaction identifiers and processor idempotency keys.
package id

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// idempotencyNamespace scopes derived idempotency keys to this service.
var idempotencyNamespace = uuid.MustParse("6f1f3c1e-2b8f-4d0c-9a51-5f7c2e9d4b10")

// NewTransactionID returns a random UUIDv4 string.
func NewTransactionID() string {
	return uuid.NewString()
}

// IdempotencyKey derives a stable key from the attempt's parts and time.
// The same parts at the same instant produce the same key; any later attempt
// produces a new one. The result is 36 characters, within the processor's
// 64 character limit.
func IdempotencyKey(at time.Time, parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
		b.WriteByte('|')
	}
	b.WriteString(strconv.FormatInt(at.UnixNano(), 10))
	return uuid.NewSHA1(idempotencyNamespace, []byte(b.String())).String()
}
