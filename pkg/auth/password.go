package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/fashioncraft/pkg/workerpool"
)

// MaxPasswordBytes is the longest input bcrypt accepts, in bytes.
const MaxPasswordBytes = 72

var (
	// ErrMismatch is returned by Compare when the password does not match.
	ErrMismatch = errors.New("auth: password mismatch")
	// ErrPasswordTooLong is returned by Hash for input over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("auth: password exceeds 72 bytes")
)

// Hasher runs bcrypt on a bounded worker pool. bcrypt salts every hash
// individually.
type Hasher struct {
	pool *workerpool.Pool
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher starts a hasher with the given number of workers. A cost outside
// bcrypt's range falls back to bcrypt.DefaultCost.
func NewHasher(workers, cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{pool: workerpool.New(workers), cost: cost}
}

// Close stops the worker pool.
func (h *Hasher) Close() {
	h.pool.Shutdown()
}

// Hash returns the bcrypt hash of plain.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	var (
		out []byte
		err error
	)
	if runErr := h.run(ctx, func() {
		out, err = bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	}); runErr != nil {
		return "", runErr
	}
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(out), nil
}

// Compare checks plain against hash. It returns ErrMismatch on a wrong
// password and other errors for malformed hashes or cancellation.
func (h *Hasher) Compare(ctx context.Context, hash, plain string) error {
	var err error
	if runErr := h.run(ctx, func() {
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	}); runErr != nil {
		return runErr
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// CompareDummy spends the same work as Compare against a throwaway hash, so
// an unknown email takes as long to reject as a wrong password.
func (h *Hasher) CompareDummy(ctx context.Context, plain string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), h.cost)
	})
	_ = h.Compare(ctx, string(h.dummy), plain)
}

// run executes fn on the pool and waits for it.
func (h *Hasher) run(ctx context.Context, fn func()) error {
	if err := h.pool.Do(ctx, fn); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("auth: hash worker: %w", err)
	}
	return nil
}
