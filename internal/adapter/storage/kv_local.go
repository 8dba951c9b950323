package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gokastorage "github.com/lovoo/goka/storage"
)

const localTopic = "storefront-state"

var _ KV = (*LocalKV)(nil)

// LocalKV keeps the state in a goka storage, on LevelDB or in memory.
type LocalKV struct {
	mu sync.Mutex
	st gokastorage.Storage
}

// NewLevelDBKV opens the LevelDB storage under dir.
func NewLevelDBKV(dir string) (*LocalKV, error) {
	const op = "NewLevelDBKV"

	st, err := gokastorage.DefaultBuilder(dir)(localTopic, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return newLocalKV(op, st)
}

func NewMemoryKV() (*LocalKV, error) {
	return newLocalKV("NewMemoryKV", gokastorage.NewMemory())
}

func newLocalKV(op string, st gokastorage.Storage) (*LocalKV, error) {
	if err := st.Open(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LocalKV{st: st}, nil
}

func (kv *LocalKV) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "LocalKV.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	v, err := kv.st.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrKeyNotFound)
	}
	return v, nil
}

func (kv *LocalKV) Set(ctx context.Context, key string, value []byte) error {
	const op = "LocalKV.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	if err := kv.st.Set(key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (kv *LocalKV) Delete(ctx context.Context, key string) error {
	const op = "LocalKV.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	if err := kv.st.Delete(key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (kv *LocalKV) Close() error {
	const op = "LocalKV.Close"

	kv.mu.Lock()
	defer kv.mu.Unlock()

	if err := kv.st.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("local storage is closed", "op", op)
	return nil
}
