package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDeploymentLabelsByOutcome(t *testing.T) {
	r := New()
	r.ObserveDeployment("deploy", true, 1.5)
	r.ObserveDeployment("deploy", false, 0.5)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, `operation="deploy"`)
	assert.Contains(t, out, `status="success"`)
	assert.Contains(t, out, `status="failure"`)
}

func TestObservePullFailureLabelsByAuthAttempted(t *testing.T) {
	r := New()
	r.ObservePullFailure(true)
	r.ObservePullFailure(false)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, `auth_attempted="true"`)
	assert.Contains(t, out, `auth_attempted="false"`)
}

func TestObserveConcurrencyConflict(t *testing.T) {
	r := New()
	r.ObserveConcurrencyConflict("deployment")
	r.ObserveConcurrencyConflict("deployment")

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), `entity="deployment"`)
}
