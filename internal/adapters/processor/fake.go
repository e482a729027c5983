package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vowsmarket/settlement-service/internal/ports"
)

// Fake is an in-memory processor used by tests and local runs without
// processor credentials. Error injection fields simulate outages.
type Fake struct {
	mu sync.Mutex

	intents     map[string]ports.Intent
	seq         int
	transferSeq int

	IntentErr   error
	GetErr      error
	TransferErr error

	Transfers []ports.TransferRequest
}

func NewFake() *Fake {
	return &Fake{intents: make(map[string]ports.Intent)}
}

func (f *Fake) CreateIntent(_ context.Context, req ports.IntentRequest) (ports.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.IntentErr != nil {
		return ports.Intent{}, f.IntentErr
	}
	f.seq++
	intent := ports.Intent{
		ProviderRef:  fmt.Sprintf("pi_fake_%06d", f.seq),
		ClientSecret: fmt.Sprintf("pi_fake_%06d_secret", f.seq),
		Status:       ports.IntentStatusPending,
	}
	f.intents[intent.ProviderRef] = intent
	return intent, nil
}

func (f *Fake) GetIntent(_ context.Context, providerRef string) (ports.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return ports.Intent{}, f.GetErr
	}
	intent, ok := f.intents[providerRef]
	if !ok {
		return ports.Intent{}, errors.New("no such intent")
	}
	return intent, nil
}

// SetIntentStatus mimics the processor moving an intent through its
// lifecycle, for reconciliation tests.
func (f *Fake) SetIntentStatus(providerRef, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent := f.intents[providerRef]
	intent.ProviderRef = providerRef
	intent.Status = status
	f.intents[providerRef] = intent
}

func (f *Fake) CreateTransfer(_ context.Context, req ports.TransferRequest) (ports.TransferResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TransferErr != nil {
		return ports.TransferResult{}, f.TransferErr
	}
	f.transferSeq++
	f.Transfers = append(f.Transfers, req)
	return ports.TransferResult{TransferID: fmt.Sprintf("tr_fake_%06d", f.transferSeq)}, nil
}

var _ ports.Processor = (*Fake)(nil)
