package service

import (
	"testing"

	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestConvertWeightAndVolume(t *testing.T) {
	got, ok := Convert(d("2"), model.UnitKg, model.UnitG)
	assert.True(t, ok)
	assert.True(t, got.Equal(d("2000")), "got %s", got)

	got, ok = Convert(d("250"), model.UnitG, model.UnitKg)
	assert.True(t, ok)
	assert.True(t, got.Equal(d("0.25")), "got %s", got)

	got, ok = Convert(d("1.5"), model.UnitLiter, model.UnitMl)
	assert.True(t, ok)
	assert.True(t, got.Equal(d("1500")), "got %s", got)

	got, ok = Convert(d("330"), model.UnitMl, model.UnitLiter)
	assert.True(t, ok)
	assert.True(t, got.Equal(d("0.33")), "got %s", got)
}

func TestConvertIdentity(t *testing.T) {
	got, ok := Convert(d("7.25"), model.UnitKg, model.UnitKg)
	assert.True(t, ok)
	assert.True(t, got.Equal(d("7.25")))

	got, ok = Convert(d("3"), model.UnitPieces, model.UnitPieces)
	assert.True(t, ok)
	assert.True(t, got.Equal(d("3")))
}

func TestConvertIncompatiblePairPassesThrough(t *testing.T) {
	// Count-style units have no conversion rule: the quantity comes back
	// unchanged and ok=false lets the caller log the pass-through.
	got, ok := Convert(d("5"), model.UnitPieces, model.UnitKg)
	assert.False(t, ok)
	assert.True(t, got.Equal(d("5")))

	got, ok = Convert(d("2"), model.UnitKg, model.UnitMl)
	assert.False(t, ok)
	assert.True(t, got.Equal(d("2")))
}

func TestConvertRoundTrip(t *testing.T) {
	grams, ok := Convert(d("0.125"), model.UnitKg, model.UnitG)
	assert.True(t, ok)
	back, ok := Convert(grams, model.UnitG, model.UnitKg)
	assert.True(t, ok)
	assert.True(t, back.Equal(d("0.125")))
}
