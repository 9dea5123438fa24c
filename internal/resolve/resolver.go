// Package resolve implements the API-key resolution chain.
//
// A key is resolved through at most three stages, in strict priority order:
//
//  1. Local cache: a hit returns immediately with zero remote calls.
//  2. Parameter store: a hit is written back into the local cache so a
//     cold or rebuilt cache heals itself, then returned.
//  3. Generate and store: a fresh key is generated remotely, written to
//     the parameter store as a create-only record, cached, and returned.
//
// A missing parameter is routine control flow between stages. Every other
// backend failure aborts the resolution with no partial state, so a deploy
// can never proceed with an empty or placeholder credential. Test mode
// bypasses all three stages and returns a fixed sentinel without touching
// the cache file or the network.
package resolve

import (
	"context"
	"errors"

	"github.com/gatekey/gatekey/internal/gateway"
	"github.com/gatekey/gatekey/internal/keycache"
	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/internal/secure"
	"github.com/gatekey/gatekey/pkg/secretstore"
)

// TestModeKey is the fixed value returned when test mode is enabled, so
// deploy pipelines can exercise their wiring without credentials.
const TestModeKey = "test123"

// Source identifies which resolution stage produced a key.
type Source string

const (
	// SourceLocalCache means the key came from the local cache file.
	SourceLocalCache Source = "local-cache"

	// SourceParameterStore means the key was fetched from the remote
	// parameter store.
	SourceParameterStore Source = "parameter-store"

	// SourceGenerated means a new key was generated and stored remotely.
	SourceGenerated Source = "generated"

	// SourceTestMode means the fixed test sentinel was returned.
	SourceTestMode Source = "test-mode"
)

// Options configures a Resolver. Store, Generator and Cache are required
// unless TestMode is set.
type Options struct {
	// Store is the remote parameter store holding existing keys.
	Store secretstore.Store

	// Generator produces new key material when no key exists anywhere.
	Generator secretstore.Generator

	// Cache is the local key cache consulted before any remote call.
	Cache *keycache.Cache

	// Logger receives stage-by-stage diagnostics. Defaults to a stderr
	// logger with debug output suppressed.
	Logger *logging.Logger

	// KeyID selects the KMS key that encrypts newly stored parameters.
	// Empty selects the account default key.
	KeyID string

	// KeyLength is the exact length of newly generated keys. Zero means
	// secretstore.DefaultKeyLength.
	KeyLength int

	// ExcludeCharacters lists characters banned from generated keys.
	// Empty means secretstore.DefaultExcludeCharacters.
	ExcludeCharacters string

	// TestMode short-circuits resolution to the fixed sentinel with no
	// cache or network access.
	TestMode bool
}

// Resolver runs the resolution chain. It is safe for concurrent use as
// long as the injected collaborators are.
type Resolver struct {
	store             secretstore.Store
	generator         secretstore.Generator
	cache             *keycache.Cache
	logger            *logging.Logger
	keyID             string
	keyLength         int
	excludeCharacters string
	testMode          bool
}

// New creates a resolver, applying the documented Options defaults.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(false, false)
	}
	length := opts.KeyLength
	if length <= 0 {
		length = secretstore.DefaultKeyLength
	}
	exclude := opts.ExcludeCharacters
	if exclude == "" {
		exclude = secretstore.DefaultExcludeCharacters
	}

	return &Resolver{
		store:             opts.Store,
		generator:         opts.Generator,
		cache:             opts.Cache,
		logger:            logger,
		keyID:             opts.KeyID,
		keyLength:         length,
		excludeCharacters: exclude,
		testMode:          opts.TestMode,
	}
}

// Resolution is the outcome of one Resolve call. The key itself lives in
// locked memory; read it with Key and call Destroy when done.
type Resolution struct {
	// Account is the twelve-digit account ID the key is cached under.
	Account string

	// Stack is the gateway stack the key belongs to.
	Stack string

	// Parameter is the full remote parameter name.
	Parameter string

	// Source reports which stage produced the key.
	Source Source

	// Version is the store-assigned parameter version when the key was
	// fetched or created remotely. Zero for cache hits and test mode.
	Version int64

	key *secure.Key
}

// Key reveals the resolved key value. The returned string is an
// unprotected copy; keep its lifetime short and never log it.
func (r *Resolution) Key() (string, error) {
	return r.key.Reveal()
}

// Destroy wipes the key material. Key fails afterwards.
func (r *Resolution) Destroy() {
	r.key.Destroy()
}

// Resolve runs the chain for one stack and returns the key with its
// provenance. account namespaces the local cache and must match the AWS
// account the store client is bound to.
func (r *Resolver) Resolve(ctx context.Context, account, stack string) (*Resolution, error) {
	if stack == "" {
		return nil, errors.New("stack name is required")
	}

	name := gateway.ParameterName(stack)

	if r.testMode {
		r.logger.Debug("test mode: returning fixed sentinel for %s", name)
		return &Resolution{
			Account:   account,
			Stack:     stack,
			Parameter: name,
			Source:    SourceTestMode,
			key:       secure.NewKey(TestModeKey),
		}, nil
	}

	if account == "" {
		return nil, errors.New("account ID is required")
	}

	if value, ok := r.cache.Get(account, stack); ok {
		r.logger.Debug("local cache hit for %s/%s", account, stack)
		return &Resolution{
			Account:   account,
			Stack:     stack,
			Parameter: name,
			Source:    SourceLocalCache,
			key:       secure.NewKey(value),
		}, nil
	}

	r.logger.Debug("local cache miss for %s/%s, checking %s", account, stack, r.store.Name())

	param, err := r.store.Get(ctx, name)
	if err == nil {
		r.logger.Debug("found %s (version %d)", name, param.Version)
		r.writeThrough(account, stack, param.Value)
		return &Resolution{
			Account:   account,
			Stack:     stack,
			Parameter: name,
			Source:    SourceParameterStore,
			Version:   param.Version,
			key:       secure.NewKey(param.Value),
		}, nil
	}

	var notFound secretstore.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	r.logger.Debug("%s does not exist, generating a new key", name)

	value, err := r.generator.Generate(ctx, r.keyLength, r.excludeCharacters)
	if err != nil {
		return nil, err
	}

	// Create-only write: losing a race against a concurrent deployment
	// must surface as ConflictError, not clobber the winner's key.
	version, err := r.store.Put(ctx, name, value, secretstore.PutOptions{
		KeyID: r.keyID,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("created parameter %s (version %d)", name, version)
	r.writeThrough(account, stack, value)

	return &Resolution{
		Account:   account,
		Stack:     stack,
		Parameter: name,
		Source:    SourceGenerated,
		Version:   version,
		key:       secure.NewKey(value),
	}, nil
}

// writeThrough refreshes the local cache after a successful remote
// resolution. The cache is an accelerator, not the source of truth, so a
// failed write is reported and the resolution still succeeds.
func (r *Resolver) writeThrough(account, stack, value string) {
	if err := r.cache.Put(account, stack, value); err != nil {
		r.logger.Warn("could not update local key cache: %v", err)
	}
}
