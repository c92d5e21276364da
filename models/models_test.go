package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRepresentations(t *testing.T) {
	assert.Equal(t, "Sample recipe name", Recipe{Title: "Sample recipe name"}.String())
	assert.Equal(t, "Tag1", Tag{Name: "Tag1"}.String())
	assert.Equal(t, "Ingredient1", Ingredient{Name: "Ingredient1"}.String())
	assert.Equal(t, "test@example.com", User{Email: "test@example.com"}.String())
}

func TestPriceJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Price Price `json:"price"`
	}{MustPrice("5.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"5.50"}`, string(raw))

	var in struct {
		Quoted Price `json:"quoted"`
		Number Price `json:"number"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quoted":"12.34","number":7.1}`), &in))
	assert.Equal(t, "12.34", in.Quoted.String())
	assert.Equal(t, "7.10", in.Number.String())
}

func TestPriceFits(t *testing.T) {
	cases := map[string]bool{
		"5.50":    true,
		"999.99":  true,
		"0":       true,
		"5.500":   true,
		"5.555":   false,
		"1000.00": false,
		"-999.99": true,
	}
	for in, want := range cases {
		p, err := NewPrice(in)
		require.NoError(t, err)
		assert.Equal(t, want, p.Fits(), in)
	}

	_, err := NewPrice("abc")
	assert.Error(t, err)
}
