package memstore

import "context"

type idemEntry struct {
	done     bool
	orderIDs []string
}

// IdempotencyStore is the in-memory counterpart of the Redis key store.
// Keys never expire.
type IdempotencyStore struct {
	s *Store
}

func (r *IdempotencyStore) Claim(ctx context.Context, key string) (bool, []string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e, ok := r.s.keys[key]; ok {
		if !e.done {
			return false, nil, nil
		}
		return false, append([]string(nil), e.orderIDs...), nil
	}
	r.s.keys[key] = &idemEntry{}
	return true, nil, nil
}

func (r *IdempotencyStore) Complete(ctx context.Context, key string, orderIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.keys[key] = &idemEntry{done: true, orderIDs: append([]string(nil), orderIDs...)}
	return nil
}

func (r *IdempotencyStore) Release(ctx context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.keys, key)
	return nil
}
