package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(MustMoney("1500.25")))
	assert.Error(t, CheckAmount(Zero()))
	assert.Error(t, CheckAmount(MustMoney("-3")))
	assert.Error(t, CheckAmount(MustMoney("1.005")))
}

func TestCheckCurrency(t *testing.T) {
	assert.NoError(t, CheckCurrency("PHP"))
	assert.Error(t, CheckCurrency("php"))
	assert.Error(t, CheckCurrency("PESO"))
}

func TestNewMoneyFromString_Trims(t *testing.T) {
	m, err := NewMoneyFromString(" 12.50 ")
	if assert.NoError(t, err) {
		assert.True(t, m.Equal(MustMoney("12.5")))
	}
}
