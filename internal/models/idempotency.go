package models

// Resource types an idempotency key can point at.
const (
	ResourceExpense    = "expense"
	ResourceSettlement = "settlement"
)

// IdempotencyKey remembers which resource a client-chosen request key
// created, so a retried create returns that resource instead of a duplicate.
type IdempotencyKey struct {
	UserID string
	Key    string

	// Procedure and RequestHash identify the request the key was first used
	// with. A retry must match both.
	Procedure   string
	RequestHash string

	ResourceType string
	ResourceID   string

	CreatedAt int64
	ExpiresAt int64
}

// Matches reports whether a request for procedure with the given hash is a
// retry of the request that created k.
func (k *IdempotencyKey) Matches(procedure, requestHash string) bool {
	return k.Procedure == procedure && k.RequestHash == requestHash
}

// Expired reports whether k no longer applies at the Unix time now.
func (k *IdempotencyKey) Expired(now int64) bool {
	return now >= k.ExpiresAt
}
