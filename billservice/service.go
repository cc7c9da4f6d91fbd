// Package billservice is the engine's core: validating and applying bill
// actions, linking every new block back into the acting identity's or
// company's own chain, reconciling pending payments against bitcoin, and
// firing timeout notifications. Grounded on bcr-ebill-api's
// bill_service (service.rs, validation.rs, blocks.rs, data_fetching.rs,
// payment.rs), re-expressed with Go's explicit error returns in place of
// that crate's async Result-returning trait methods.
package billservice

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btclog"
	"github.com/hubertusvie/bcr-ebilld/blockchain/company"
	"github.com/hubertusvie/bcr-ebilld/blockchain/identity"
	"github.com/hubertusvie/bcr-ebilld/btcoracle"
	"github.com/hubertusvie/bcr-ebilld/clock"
	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/hubertusvie/bcr-ebilld/notify"
	"github.com/hubertusvie/bcr-ebilld/store"
)

// Service is the bill engine. It is safe for concurrent use by multiple
// readers; callers are responsible for serializing concurrent actions
// against the same bill (Service holds no lock of its own).
type Service struct {
	chains       store.ChainStore
	keys         store.KeyStore
	identities   store.IdentityChainStore
	identityKeys store.IdentityKeyStore
	companies    store.CompanyChainStore
	companyKeys  store.CompanyKeyStore
	notified     store.NotificationStore
	paid         store.PaidStore
	contacts     store.ContactResolver

	oracle btcoracle.Oracle
	sink   notify.Sink
	clock  clock.Clock

	acceptDeadline   uint64
	paymentDeadline  uint64
	recourseDeadline uint64
}

// Config bundles Service's dependencies so New's signature stays readable
// as the engine grows more of them.
type Config struct {
	Chains       store.ChainStore
	Keys         store.KeyStore
	Identities   store.IdentityChainStore
	IdentityKeys store.IdentityKeyStore
	Companies    store.CompanyChainStore
	CompanyKeys  store.CompanyKeyStore
	Notified     store.NotificationStore
	Paid         store.PaidStore
	Contacts     store.ContactResolver

	Oracle btcoracle.Oracle
	Sink   notify.Sink
	Clock  clock.Clock

	// AcceptDeadlineSeconds, PaymentDeadlineSeconds and
	// RecourseDeadlineSeconds override the package defaults when nonzero;
	// tests fix these to small values to exercise timeouts without
	// waiting real time.
	AcceptDeadlineSeconds   uint64
	PaymentDeadlineSeconds  uint64
	RecourseDeadlineSeconds uint64
}

// New constructs a Service from cfg, filling in constants.go's defaults
// for any deadline left at zero.
func New(cfg Config) *Service {
	svc := &Service{
		chains:           cfg.Chains,
		keys:             cfg.Keys,
		identities:       cfg.Identities,
		identityKeys:     cfg.IdentityKeys,
		companies:        cfg.Companies,
		companyKeys:      cfg.CompanyKeys,
		notified:         cfg.Notified,
		paid:             cfg.Paid,
		contacts:         cfg.Contacts,
		oracle:           cfg.Oracle,
		sink:             cfg.Sink,
		clock:            cfg.Clock,
		acceptDeadline:   cfg.AcceptDeadlineSeconds,
		paymentDeadline:  cfg.PaymentDeadlineSeconds,
		recourseDeadline: cfg.RecourseDeadlineSeconds,
	}
	if svc.clock == nil {
		svc.clock = clock.Default{}
	}
	if svc.acceptDeadline == 0 {
		svc.acceptDeadline = AcceptDeadlineSeconds
	}
	if svc.paymentDeadline == 0 {
		svc.paymentDeadline = PaymentDeadlineSeconds
	}
	if svc.recourseDeadline == 0 {
		svc.recourseDeadline = RecourseDeadlineSeconds
	}
	return svc
}

// billPrivateKey loads billID's secp256k1 private key from the key store.
func (svc *Service) billPrivateKey(ctx context.Context, billID string) (*btcec.PrivateKey, error) {
	k, err := svc.keys.GetKeys(ctx, billID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ErrNoPrivateKeyForBill
	}
	bk, err := keys.FromPrivateKeyHex(k.PrivateKey)
	if err != nil {
		return nil, err
	}
	return bk.PrivateKey(), nil
}

// companyChainFor loads companyID's chain, or nil if svc has no record of
// being a signatory for it.
func (svc *Service) companyChainFor(ctx context.Context, companyID string) (*company.Chain, error) {
	if companyID == "" {
		return nil, nil
	}
	return svc.companies.GetCompanyChain(ctx, companyID)
}

// identityChain loads the local node's own identity chain.
func (svc *Service) identityChain(ctx context.Context) (*identity.Chain, error) {
	return svc.identities.GetIdentityChain(ctx)
}

// companyPrivateKey loads companyID's own private key, if this node's
// companyKeys store was entrusted with it. Absence is not an error at every
// call site: most signatories never need to decrypt the company's own
// chain, only sign blocks on its behalf.
func (svc *Service) companyPrivateKey(ctx context.Context, companyID string) (*btcec.PrivateKey, error) {
	if svc.companyKeys == nil {
		return nil, ErrNoPrivateKeyForBill
	}
	hexKey, err := svc.companyKeys.GetCompanyPrivateKeyHex(ctx, companyID)
	if err != nil {
		return nil, err
	}
	bk, err := keys.FromPrivateKeyHex(hexKey)
	if err != nil {
		return nil, err
	}
	return bk.PrivateKey(), nil
}

var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
