package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
	"github.com/mmynk/splitengine/pkg/api/apiconnect"
)

const maxIdempotencyKeyLen = 128

var (
	errInvalidIdempotencyKey = errors.New("idempotency key must be 1 to 128 visible ASCII characters")
	errIdempotencyKeyReused  = errors.New("idempotency key was already used for a different request")
)

// idempotency resolves Idempotency-Key headers on create calls.
type idempotency struct {
	store storage.Store
	ttl   time.Duration
	now   func() time.Time
}

func newIdempotency(store storage.Store, ttl time.Duration) idempotency {
	return idempotency{store: store, ttl: ttl, now: time.Now}
}

// idempotencyKey reads the key header. A request without one yields "".
func idempotencyKey(header http.Header) (string, error) {
	key := strings.TrimSpace(header.Get(apiconnect.IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		return "", connect.NewError(connect.CodeInvalidArgument, errInvalidIdempotencyKey)
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '!' || key[i] > '~' {
			return "", connect.NewError(connect.CodeInvalidArgument, errInvalidIdempotencyKey)
		}
	}
	return key, nil
}

// begin checks key before a resource is created. It returns the stored record
// when this request was already served, or the record to save with the new
// resource otherwise. Both are nil when key is empty. Reusing a live key for
// a different request fails with CodeAlreadyExists.
func (g idempotency) begin(ctx context.Context, userID, key, procedure, hash string) (replay, pending *models.IdempotencyKey, err error) {
	if key == "" {
		return nil, nil, nil
	}
	now := g.now()

	record, err := g.store.GetIdempotencyKey(ctx, userID, key, now.Unix())
	switch {
	case err == nil:
		if !record.Matches(procedure, hash) {
			return nil, nil, connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("%w: %q", errIdempotencyKeyReused, key))
		}
		return record, nil, nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, nil, toConnectError(err)
	}

	return nil, &models.IdempotencyKey{
		UserID:      userID,
		Key:         key,
		Procedure:   procedure,
		RequestHash: hash,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(g.ttl).Unix(),
	}, nil
}

// requestHash fingerprints the normalized fields of a create request.
// Fields are length-prefixed so that no two field lists collide.
func requestHash(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		fmt.Fprintf(h, "%d:%s;", len(f), f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// markReplayed flags a response that returns an earlier request's resource.
func markReplayed(header http.Header) {
	header.Set(apiconnect.IdempotentReplayedHeader, "true")
}
