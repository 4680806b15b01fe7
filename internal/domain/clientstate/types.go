package clientstate

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Record keys, one persisted record per key and shopper.
const (
	KeyCart       = "cart-storage"
	KeyWishlist   = "wishlist-storage"
	KeyPushTokens = "push-tokens"
)

// CurrentVersion is the only snapshot version this build reads or writes.
const CurrentVersion = 1

var (
	ErrNotFound     = errors.New("client state not found")
	ErrInconsistent = errors.New("inconsistent persisted state")
)

// Record is one persisted snapshot.
type Record struct {
	OwnerID   string          `json:"owner_id"`
	Key       string          `json:"key"`
	Version   int             `json:"version"`
	Payload   json.RawMessage `json:"payload"`
	Checksum  string          `json:"checksum"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Store interface {
	Load(ctx context.Context, ownerID, key string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, ownerID, key string) error
}

// Seal serializes v into a record stamped with the current version and the
// payload checksum.
func Seal(ownerID, key string, v any) (Record, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return Record{
		OwnerID:   ownerID,
		Key:       key,
		Version:   CurrentVersion,
		Payload:   payload,
		Checksum:  checksum(payload),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Open decodes a record into v. Records from another version, with a
// checksum mismatch or an undecodable payload report ErrInconsistent.
func Open(rec Record, v any) error {
	if rec.Version != CurrentVersion {
		return fmt.Errorf("%w: %s version %d", ErrInconsistent, rec.Key, rec.Version)
	}
	if checksum(rec.Payload) != rec.Checksum {
		return fmt.Errorf("%w: %s checksum mismatch", ErrInconsistent, rec.Key)
	}
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInconsistent, rec.Key, err)
	}
	return nil
}

func checksum(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
