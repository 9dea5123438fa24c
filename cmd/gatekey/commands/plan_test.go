package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoStackConfig = `version: 0
defaults:
  region: us-east-1
stacks:
  billing: {}
  orders-api: {}
`

func TestPlanCommand_ReportsSources(t *testing.T) {
	isolateCache(t)
	set := useFakeBackends(t)
	set.ssm.AddSecureStringParameter("/billing/api-key", "billing-key-value")
	cfg := testConfig(t, twoStackConfig)

	output, err := captureOutput(t, NewPlanCommand(cfg), []string{})
	require.NoError(t, err)

	assert.Contains(t, output, "STACK")
	assert.Contains(t, output, "/billing/api-key")
	assert.Contains(t, output, "fetch stored key (version 1)")
	assert.Contains(t, output, "/orders-api/api-key")
	assert.Contains(t, output, "generate new key")
	assert.Contains(t, output, "Stacks checked: 2")
	assert.Contains(t, output, "New keys to generate: 1")

	assert.NotContains(t, output, "billing-key-value", "plan output never carries key values")
	assert.Zero(t, set.ssm.GetParameterCalls, "plan must not decrypt anything")
	assert.Zero(t, set.ssm.PutParameterCalls, "plan must not create anything")
	assert.Zero(t, set.sm.GetRandomPasswordCalls)
	assert.Equal(t, 2, set.ssm.DescribeParametersCalls, "one metadata probe per stack")
}

func TestPlanCommand_DiscoversAccountOnce(t *testing.T) {
	isolateCache(t)
	set := useFakeBackends(t)
	cfg := testConfig(t, twoStackConfig)

	_, err := captureOutput(t, NewPlanCommand(cfg), []string{})
	require.NoError(t, err)

	assert.Equal(t, 1, set.sts.GetCallerIdentityCalls, "discovery result carries across stacks")
}

func TestPlanCommand_ReportsCachedKeys(t *testing.T) {
	isolateCache(t)
	useFakeBackends(t)
	cfg := testConfig(t, minimalStackConfig)

	// A real resolve populates the cache; the plan should then report it
	_, err := captureOutput(t, NewResolveCommand(cfg), []string{"--stack", "orders-api"})
	require.NoError(t, err)

	output, err := captureOutput(t, NewPlanCommand(cfg), []string{})
	require.NoError(t, err)

	assert.Contains(t, output, "reuse cached key")
}

func TestPlanCommand_SingleStack(t *testing.T) {
	isolateCache(t)
	useFakeBackends(t)
	cfg := testConfig(t, twoStackConfig)

	output, err := captureOutput(t, NewPlanCommand(cfg), []string{"--stack", "orders-api"})
	require.NoError(t, err)

	assert.Contains(t, output, "orders-api")
	assert.NotContains(t, output, "billing")
	assert.Contains(t, output, "Stacks checked: 1")
}

func TestPlanCommand_JSON(t *testing.T) {
	isolateCache(t)
	set := useFakeBackends(t)
	set.ssm.AddSecureStringParameter("/billing/api-key", "billing-key-value")
	cfg := testConfig(t, twoStackConfig)

	output, err := captureOutput(t, NewPlanCommand(cfg), []string{"--json"})
	require.NoError(t, err)

	var decoded struct {
		Stacks []struct {
			Stack     string `json:"stack"`
			Account   string `json:"account"`
			Parameter string `json:"parameter"`
			Source    string `json:"source"`
			Version   int64  `json:"version"`
		} `json:"stacks"`
		Summary struct {
			Total      int `json:"total"`
			ToGenerate int `json:"to_generate"`
			Errors     int `json:"errors"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))

	require.Len(t, decoded.Stacks, 2)
	assert.Equal(t, "billing", decoded.Stacks[0].Stack, "stacks are reported in sorted order")
	assert.Equal(t, "parameter-store", decoded.Stacks[0].Source)
	assert.Equal(t, int64(1), decoded.Stacks[0].Version)
	assert.Equal(t, "orders-api", decoded.Stacks[1].Stack)
	assert.Equal(t, "generated", decoded.Stacks[1].Source)

	assert.Equal(t, 2, decoded.Summary.Total)
	assert.Equal(t, 1, decoded.Summary.ToGenerate)
	assert.Equal(t, 0, decoded.Summary.Errors)

	assert.NotContains(t, output, "billing-key-value")
}

func TestPlanCommand_NoStacks(t *testing.T) {
	cfg := testConfig(t, "version: 0\n")

	_, err := captureOutput(t, NewPlanCommand(cfg), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stacks")
	assert.Contains(t, err.Error(), "--stack")
}

func TestPlanCommand_MissingConfig(t *testing.T) {
	cfg := missingConfig(t)

	_, err := captureOutput(t, NewPlanCommand(cfg), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gatekey init")
}

func TestPlanCommand_BackendFailureMarksRow(t *testing.T) {
	isolateCache(t)
	set := useFakeBackends(t)
	set.ssm.AddError("/orders-api/api-key", assert.AnError)
	cfg := testConfig(t, minimalStackConfig)

	output, err := captureOutput(t, NewPlanCommand(cfg), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 stacks")
	assert.Contains(t, output, "✗")
}
