package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Mock accepts every charge. Repeating an idempotency key returns the first receipt.
type Mock struct {
	mu       sync.Mutex
	receipts map[string]Receipt
}

func NewMock() *Mock {
	return &Mock{receipts: make(map[string]Receipt)}
}

func (m *Mock) Capture(ctx context.Context, ch Charge) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.receipts[ch.IdempotencyKey]; ok {
		return r, nil
	}

	r := Receipt{Provider: "mock", Reference: "mock_" + uuid.NewString()}
	m.receipts[ch.IdempotencyKey] = r
	return r, nil
}
