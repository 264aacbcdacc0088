package pkcs11

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/config"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/miekg/pkcs11"
	"github.com/pkg/errors"
)

// Provider identity
const (
	ProviderName = "pkcs11"
	Version      = "1.0.0"
)

// Provider registers algorithms backed by a logged-in PKCS#11 session. The session is shared by all keys and
// operations and is serialized, since a session runs one cryptographic operation at a time.
type Provider struct {
	settings *config.PKCS11Settings
	logger   logger.Logger
	load     ModuleLoader

	mu          sync.Mutex
	module      Module
	session     pkcs11.SessionHandle
	slot        uint
	initialized bool
	closed      bool
}

var _ provider.Provider = (*Provider)(nil)

// Option customizes a Provider
type Option func(*Provider)

// WithModuleLoader replaces the loader used to open the PKCS#11 library
func WithModuleLoader(load ModuleLoader) Option {
	return func(p *Provider) {
		p.load = load
	}
}

// NewProvider creates a provider for the token described by settings. The module is only loaded by Initialize.
func NewProvider(settings *config.PKCS11Settings, logger logger.Logger, opts ...Option) (*Provider, error) {
	if settings == nil {
		return nil, &crypto.ConfigurationError{Component: ProviderName, Reason: "settings are required"}
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{settings: settings, logger: logger, load: LoadModule}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string        { return ProviderName }
func (p *Provider) Version() string     { return Version }
func (p *Provider) Description() string { return "Token-resident keys through a PKCS#11 module" }

// Initialize opens a logged-in session on the configured token and registers AES and ECDSA.
func (p *Provider) Initialize(r provider.Registrar) error {
	p.mu.Lock()
	if p.initialized {
		p.mu.Unlock()
		return &crypto.ConfigurationError{Component: ProviderName, Reason: "provider is already initialized"}
	}
	err := p.connect()
	p.mu.Unlock()
	if err != nil {
		return crypto.NewBackendError(ProviderName, "open session", err)
	}

	for _, assemble := range []func() (*algorithm.Algorithm, error){p.aesAlgorithm, p.ecdsaAlgorithm} {
		alg, err := assemble()
		if err != nil {
			return err
		}
		if err := r.Register(alg); err != nil {
			return err
		}
	}
	return nil
}

// connect must be called with p.mu held.
func (p *Provider) connect() error {
	module, err := p.load(p.settings.ModulePath)
	if err != nil {
		return err
	}
	if err := module.Initialize(); err != nil {
		module.Destroy()
		return errors.Wrap(err, "failed to initialize PKCS#11 module")
	}

	slot, err := p.selectSlot(module)
	if err != nil {
		_ = module.Finalize()
		module.Destroy()
		return err
	}

	session, err := module.OpenSession(slot, pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		_ = module.Finalize()
		module.Destroy()
		return errors.Wrap(err, "failed to open session")
	}

	if err := module.Login(session, pkcs11.CKU_USER, p.settings.UserPin); err != nil && !isCode(err, pkcs11.CKR_USER_ALREADY_LOGGED_IN) {
		_ = module.CloseSession(session)
		_ = module.Finalize()
		module.Destroy()
		return errors.Wrap(err, "failed to login")
	}

	p.module = module
	p.session = session
	p.slot = slot
	p.initialized = true
	p.logger.Info(fmt.Sprintf("Opened PKCS#11 session on slot %d", slot))
	return nil
}

// selectSlot picks the slot holding the token labelled TokenLabel, or SlotID when no label is configured.
func (p *Provider) selectSlot(module Module) (uint, error) {
	slots, err := module.GetSlotList(true)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get slot list")
	}
	if len(slots) == 0 {
		return 0, errors.New("no token present in any slot")
	}

	if p.settings.TokenLabel == "" {
		if !slices.Contains(slots, p.settings.SlotID) {
			return 0, errors.Errorf("slot %d has no token, available slots %v", p.settings.SlotID, slots)
		}
		return p.settings.SlotID, nil
	}

	for _, slot := range slots {
		info, err := module.GetTokenInfo(slot)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to get token info for slot %d", slot)
		}
		if strings.TrimSpace(info.Label) == p.settings.TokenLabel {
			return slot, nil
		}
	}
	return 0, errors.Errorf("no token labelled %q", p.settings.TokenLabel)
}

// Close logs out, closes the session and finalizes the module. Keys referencing token objects become unusable.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	keep := func(err error, msg string) {
		if err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, msg)
		}
	}
	if err := p.module.Logout(p.session); !isCode(err, pkcs11.CKR_USER_NOT_LOGGED_IN) {
		keep(err, "failed to logout")
	}
	keep(p.module.CloseSession(p.session), "failed to close session")
	keep(p.module.Finalize(), "failed to finalize module")
	p.module.Destroy()

	p.logger.Info(fmt.Sprintf("Closed PKCS#11 session on slot %d", p.slot))
	return crypto.NewBackendError(ProviderName, "close session", firstErr)
}

// withSession runs fn on the shared session. Backend failures are reported as BackendOperationError.
func (p *Provider) withSession(operation string, fn func(m Module, s pkcs11.SessionHandle) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return &crypto.InvalidStateError{Operation: operation, State: "the pkcs11 provider is not initialized"}
	}
	if p.closed {
		return &crypto.InvalidStateError{Operation: operation, State: "the pkcs11 session is closed"}
	}
	return crypto.NewBackendError(ProviderName, operation, fn(p.module, p.session))
}
