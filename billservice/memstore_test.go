package billservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/blockchain/company"
	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/store"
)

// memStore is an in-memory implementation of every store.* interface, used
// to exercise the engine end to end without a real bbolt file on disk.
type memStore struct {
	mu sync.Mutex

	chains       map[string]*bill.Chain
	keys         map[string]*bill.Keys
	identityChain *identity.Chain
	identityKey  string
	companyChains map[string]*company.Chain
	companyKeys  map[string]string
	notified     map[string]bool
	paid         map[string]bool
	contacts     map[string]*store.Contact
}

func newMemStore() *memStore {
	return &memStore{
		chains:        make(map[string]*bill.Chain),
		keys:          make(map[string]*bill.Keys),
		companyChains: make(map[string]*company.Chain),
		companyKeys:   make(map[string]string),
		notified:      make(map[string]bool),
		paid:          make(map[string]bool),
		contacts:      make(map[string]*store.Contact),
	}
}

func (m *memStore) GetChain(_ context.Context, billID string) (*bill.Chain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chains[billID]
	if !ok {
		return nil, store.ErrChainNotFound
	}
	return c, nil
}

func (m *memStore) SaveChain(_ context.Context, billID string, chain *bill.Chain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[billID] = chain
	return nil
}

func (m *memStore) ChainExists(_ context.Context, billID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.chains[billID]
	return ok, nil
}

func (m *memStore) AllBillIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.chains))
	for id := range m.chains {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) GetKeys(_ context.Context, billID string) (*bill.Keys, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[billID], nil
}

func (m *memStore) SaveKeys(_ context.Context, billID string, k *bill.Keys) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[billID] = k
	return nil
}

func (m *memStore) GetIdentityChain(_ context.Context) (*identity.Chain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identityChain == nil {
		return nil, store.ErrChainNotFound
	}
	return m.identityChain, nil
}

func (m *memStore) SaveIdentityChain(_ context.Context, chain *identity.Chain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identityChain = chain
	return nil
}

func (m *memStore) GetIdentityPrivateKeyHex(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identityKey, nil
}

func (m *memStore) GetCompanyChain(_ context.Context, companyID string) (*company.Chain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companyChains[companyID]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *memStore) SaveCompanyChain(_ context.Context, companyID string, chain *company.Chain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companyChains[companyID] = chain
	return nil
}

func (m *memStore) AllCompanyIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.companyChains))
	for id := range m.companyChains {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) GetCompanyPrivateKeyHex(_ context.Context, companyID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.companyKeys[companyID], nil
}

func notifiedKey(billID string, blockHeight int, action string) string {
	return fmt.Sprintf("%s|%s|%d", billID, action, blockHeight)
}

func (m *memStore) WasSent(_ context.Context, billID string, blockHeight int, action string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notified[notifiedKey(billID, blockHeight, action)], nil
}

func (m *memStore) MarkSent(_ context.Context, billID string, blockHeight int, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified[notifiedKey(billID, blockHeight, action)] = true
	return nil
}

func (m *memStore) IsPaid(_ context.Context, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paid[address], nil
}

func (m *memStore) MarkPaid(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paid[address] = true
	return nil
}

func (m *memStore) Resolve(_ context.Context, nodeID string) (*store.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contacts[nodeID], nil
}
