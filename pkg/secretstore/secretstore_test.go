package secretstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterValues(t *testing.T) {
	t.Run("string list splits on commas", func(t *testing.T) {
		p := Parameter{
			Name:  "/orders-api/origins",
			Value: "https://a.example.com,https://b.example.com",
			Type:  TypeStringList,
		}
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, p.Values())
	})

	t.Run("secure string stays whole", func(t *testing.T) {
		p := Parameter{
			Name:  "/orders-api/api-key",
			Value: "k3y,with,commas",
			Type:  TypeSecureString,
		}
		assert.Equal(t, []string{"k3y,with,commas"}, p.Values())
	})
}

func TestNotFoundError(t *testing.T) {
	err := error(NotFoundError{Store: "aws.ssm", Name: "/orders-api/api-key"})

	assert.Equal(t, "parameter not found: /orders-api/api-key in aws.ssm", err.Error())

	var notFound NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "/orders-api/api-key", notFound.Name)
}

func TestConflictError(t *testing.T) {
	err := error(ConflictError{Store: "aws.ssm", Name: "/orders-api/api-key"})

	assert.Equal(t, "parameter already exists: /orders-api/api-key in aws.ssm", err.Error())
}

func TestUnavailableErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := error(UnavailableError{Store: "aws.ssm", Op: "get", Err: cause})

	assert.Equal(t, "aws.ssm unavailable during get: dial tcp: i/o timeout", err.Error())
	assert.True(t, errors.Is(err, cause))

	bare := error(UnavailableError{Store: "aws.secretsmanager", Op: "generate"})
	assert.Equal(t, "aws.secretsmanager unavailable during generate", bare.Error())
}

func TestDefaultExcludeCharacters(t *testing.T) {
	// The exclusion set keeps generated keys shell, URL, and YAML safe.
	for _, c := range []string{" ", "'", "\"", "`", "$", "|", "@", "\\", "#"} {
		assert.Contains(t, DefaultExcludeCharacters, c)
	}
	// Alphanumerics and the dash/underscore/dot family must stay allowed.
	for _, c := range []string{"a", "Z", "0", "-", "_", "."} {
		assert.NotContains(t, DefaultExcludeCharacters, c)
	}
}
