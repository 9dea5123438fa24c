// Package secretstore defines the interfaces and types for the remote secret
// backend used by gatekey.
//
// gatekey resolves one API key per gateway stack. The remote side of that
// resolution is split into two narrow capabilities:
//
//   - Store: an encrypted parameter store addressed by name (AWS SSM
//     Parameter Store in production). Values are decrypted on read and
//     written as encrypted records.
//   - Generator: a remote source of cryptographically random key material
//     (AWS Secrets Manager GetRandomPassword in production). There is
//     deliberately no local fallback; if the remote generator is
//     unreachable, key creation fails.
//
// # Error Handling
//
// Implementations must use the error types defined in this package so the
// resolver can tell an expected miss from a real failure:
//
//   - NotFoundError when a parameter name does not exist. A miss is a
//     routine signal that drives fallthrough to the next resolution stage,
//     never a failure.
//   - ConflictError when a create-only write finds the name already taken.
//     This usually means another deployment won a race and must be surfaced,
//     not masked as success.
//   - UnavailableError for everything else: authentication, authorization,
//     throttling, networking. These abort resolution immediately.
//
// # Security Considerations
//
// Implementations must never log secret values (wrap them in
// logging.Secret when a value must appear in a message), must request
// decryption only on Get, and must support context cancellation on every
// call.
package secretstore

import (
	"context"
	"strings"
	"time"
)

// DefaultExcludeCharacters is the character set excluded from generated
// keys. It removes shell metacharacters, URL and header delimiters, and
// template syntax so a key can pass through pipelines, curl invocations,
// and YAML files without quoting surprises.
const DefaultExcludeCharacters = " ^,%+~`#$&*()|[]{}:;<>?!'/@\"\\"

// DefaultKeyLength is the standard length of generated API keys.
const DefaultKeyLength = 40

// ParameterType classifies how a stored parameter value is interpreted.
type ParameterType string

const (
	// TypeString is a plain, unencrypted text value.
	TypeString ParameterType = "String"

	// TypeStringList is a comma-separated list of text values.
	TypeStringList ParameterType = "StringList"

	// TypeSecureString is a value encrypted at rest with a KMS key.
	// All parameters written by gatekey are SecureString.
	TypeSecureString ParameterType = "SecureString"
)

// Parameter is a decrypted parameter record returned by Store.Get.
type Parameter struct {
	// Name is the full parameter name, for example "/orders-api/api-key".
	Name string

	// Value is the decrypted parameter value. Never log this field.
	Value string

	// Type reports how the store classifies the value.
	Type ParameterType

	// Version is the store-assigned version number, starting at 1.
	Version int64
}

// Values splits a StringList parameter into its elements. For any other
// parameter type it returns the whole value as a single element.
func (p Parameter) Values() []string {
	if p.Type == TypeStringList {
		return strings.Split(p.Value, ",")
	}
	return []string{p.Value}
}

// Metadata describes a parameter without exposing its value. Returned by
// Store.Describe, which planning code uses so that existence checks never
// decrypt anything.
type Metadata struct {
	// Exists reports whether the parameter is present in the store.
	// When false the remaining fields are zero values.
	Exists bool

	// Type reports the stored parameter type.
	Type ParameterType

	// Version is the current version number.
	Version int64

	// Tier is the store-specific storage tier, for example "Standard".
	Tier string

	// UpdatedAt is when the parameter was last modified. Zero when the
	// store does not report it.
	UpdatedAt time.Time
}

// PutOptions control how Store.Put creates a parameter record.
type PutOptions struct {
	// KeyID selects the KMS key used to encrypt the value. Empty selects
	// the store's account default key.
	KeyID string

	// Description is attached to the parameter record. Empty omits it.
	Description string

	// Overwrite permits replacing an existing value. gatekey leaves this
	// false so a lost creation race surfaces as ConflictError instead of
	// silently clobbering the winner's key.
	Overwrite bool
}

// Store is an encrypted, name-addressed parameter store.
//
// Implementations must be safe for concurrent use and must map backend
// error conditions onto this package's error types as described in the
// package documentation.
type Store interface {
	// Name returns the store's stable identifier, used in logs and error
	// messages. Example: "aws.ssm".
	Name() string

	// Get retrieves and decrypts one parameter. A missing name returns
	// NotFoundError; any other failure returns UnavailableError.
	Get(ctx context.Context, name string) (Parameter, error)

	// Put creates an encrypted record and returns its store-assigned
	// version. With opts.Overwrite false, an existing name returns
	// ConflictError and leaves the stored value untouched.
	Put(ctx context.Context, name, value string, opts PutOptions) (int64, error)

	// Describe reports a parameter's metadata without decrypting it.
	// A missing name yields Metadata{Exists: false}, not an error.
	Describe(ctx context.Context, name string) (Metadata, error)

	// Validate checks connectivity and permissions without touching any
	// parameter values.
	Validate(ctx context.Context) error
}

// Generator produces cryptographically random key material.
//
// length is the exact number of characters to produce. excludeCharacters
// lists characters that must not appear in the result; pass
// DefaultExcludeCharacters for gatekey's standard policy.
type Generator interface {
	// Name returns the generator's stable identifier. Example:
	// "aws.secretsmanager".
	Name() string

	// Generate returns a random string of exactly length characters
	// containing none of excludeCharacters. Any failure returns
	// UnavailableError; there is no local fallback.
	Generate(ctx context.Context, length int, excludeCharacters string) (string, error)

	// Validate checks that the generator is reachable and authorized.
	Validate(ctx context.Context) error
}

// NotFoundError indicates that a parameter name does not exist in the
// store. Resolution code treats it as an expected signal, not a failure.
type NotFoundError struct {
	// Store is the name of the store that was queried.
	Store string

	// Name is the parameter name that was not found.
	Name string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return "parameter not found: " + e.Name + " in " + e.Store
}

// ConflictError indicates that a create-only Put found the name already
// present. The stored value was not modified.
type ConflictError struct {
	// Store is the name of the store that rejected the write.
	Store string

	// Name is the parameter name that already exists.
	Name string
}

// Error implements the error interface.
func (e ConflictError) Error() string {
	return "parameter already exists: " + e.Name + " in " + e.Store
}

// UnavailableError indicates that the backend could not serve a request
// for any reason other than a missing name: bad credentials, denied
// permissions, throttling, or network failure.
type UnavailableError struct {
	// Store is the name of the backend that failed.
	Store string

	// Op is the operation that failed, for example "get" or "generate".
	Op string

	// Err is the underlying backend error.
	Err error
}

// Error implements the error interface.
func (e UnavailableError) Error() string {
	msg := e.Store + " unavailable during " + e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying backend error.
func (e UnavailableError) Unwrap() error {
	return e.Err
}
