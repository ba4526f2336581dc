package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"true", "True", "1", "on", "yes", " t "} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "false", "0", "off", "no", "vrai"} {
		assert.False(t, IsTruthy(v), v)
	}
}

func TestTruthyJSON(t *testing.T) {
	var req ContactBeneficiaryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"message":"hi","cc_prescriber":"on","cc_referent":false}`), &req))
	assert.True(t, req.CCPrescriber.Bool())
	assert.False(t, req.CCReferent.Bool())

	var other ContactPrescriberRequest
	require.NoError(t, json.Unmarshal([]byte(`{"cc_beneficiary":true,"cc_referent":1}`), &other))
	assert.True(t, other.CCBeneficiary.Bool())
	assert.True(t, other.CCReferent.Bool())
}
