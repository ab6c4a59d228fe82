package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSet(t *testing.T) {
	t.Parallel()

	s := NewStringSet("b", "a", "", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has(""))
	assert.Equal(t, []string{"a", "b"}, s.Sorted())

	s.Add("")
	assert.Equal(t, 2, s.Len())
}

func TestStringSet_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewStringSet("zeta", "alpha"))
	require.NoError(t, err)
	assert.JSONEq(t, `["alpha","zeta"]`, string(data))

	var decoded StringSet
	require.NoError(t, json.Unmarshal([]byte(`["x","x","y"]`), &decoded))
	assert.Equal(t, []string{"x", "y"}, decoded.Sorted())
}

func TestVendorInput_IsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, VendorInput{}.IsEmpty())
	assert.False(t, VendorInput{Name: "Stripe"}.IsEmpty())
	assert.False(t, VendorInput{ProductTags: []string{"api"}}.IsEmpty())
}

func TestVendorInput_JSONDecode(t *testing.T) {
	t.Parallel()

	var in VendorInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Stripe",
		"product_tags": ["payments"],
		"metadata": {"industry": "fintech"}
	}`), &in))
	assert.Equal(t, "Stripe", in.Name)
	assert.Equal(t, []string{"payments"}, in.ProductTags)
	assert.Equal(t, String("fintech"), in.Metadata["industry"])
}

func TestClassifySaaSResult_OmitsNilProfile(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ClassifySaaSResult{Category: "Unknown", BenchmarkKey: "general_saas_benchmark_v1"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "category_profile")
}

func TestClassifySaaSResult_TopProductNames(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ClassifySaaSResult{}.TopProductNames())
	r := ClassifySaaSResult{CategoryProfile: &CategoryProfile{TopProducts: []RankedProduct{{Name: "AWS"}, {Name: "GCP"}}}}
	assert.Equal(t, []string{"AWS", "GCP"}, r.TopProductNames())
}
