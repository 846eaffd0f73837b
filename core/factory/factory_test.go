package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicmarket/marketplace-go/core/bank"
	"github.com/relicmarket/marketplace-go/core/registry"
	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

var deployer = util.MustNewEthereumAddressFromString("0x1111111111111111111111111111111111111111")

func TestNew(t *testing.T) {
	_, err := New(util.ZeroAddress)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = New(util.BurnAddress)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	f, err := New(deployer)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestDeterministicAddress(t *testing.T) {
	f, err := New(deployer)
	require.NoError(t, err)

	salt := [32]byte{1, 2, 3}

	t.Run("stable for same inputs", func(t *testing.T) {
		a := f.DeterministicAddress(salt, KindCollection)
		b := f.DeterministicAddress(salt, KindCollection)
		assert.Equal(t, a, b)
	})

	t.Run("kind changes the address", func(t *testing.T) {
		a := f.DeterministicAddress(salt, KindCollection)
		b := f.DeterministicAddress(salt, KindMarketplace)
		c := f.DeterministicAddress(salt, KindSingleEdition)
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a, c)
		assert.NotEqual(t, b, c)
	})

	t.Run("salt changes the address", func(t *testing.T) {
		a := f.DeterministicAddress([32]byte{1}, KindCollection)
		b := f.DeterministicAddress([32]byte{2}, KindCollection)
		assert.NotEqual(t, a, b)
	})

	t.Run("deployer changes the address", func(t *testing.T) {
		other, err := New(util.MustNewEthereumAddressFromString("0x2222222222222222222222222222222222222222"))
		require.NoError(t, err)
		assert.NotEqual(t,
			f.DeterministicAddress(salt, KindCollection),
			other.DeterministicAddress(salt, KindCollection),
		)
	})
}

func TestDeployments(t *testing.T) {
	f, err := New(deployer)
	require.NoError(t, err)

	t.Run("single edition lands on its predicted address", func(t *testing.T) {
		salt := [32]byte{10}
		addr, reg, err := f.DeploySingleEdition(salt)
		require.NoError(t, err)
		require.NotNil(t, reg)
		assert.Equal(t, f.DeterministicAddress(salt, KindSingleEdition), addr)

		got, ok := f.Registry(addr)
		require.True(t, ok)
		assert.Same(t, reg, got)
	})

	t.Run("collection lands on its predicted address", func(t *testing.T) {
		salt := [32]byte{11}
		addr, coll, err := f.DeployCollection(salt, 10, deployer, 500)
		require.NoError(t, err)
		require.NotNil(t, coll)
		assert.Equal(t, f.DeterministicAddress(salt, KindCollection), addr)
	})

	t.Run("invalid collection parameters surface", func(t *testing.T) {
		_, _, err := f.DeployCollection([32]byte{12}, 0, deployer, 500)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("salt reuse is refused", func(t *testing.T) {
		_, _, err := f.DeploySingleEdition([32]byte{10})
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("marketplace resolves collections through the factory", func(t *testing.T) {
		salt := [32]byte{13}
		addr, mkt, err := f.DeployMarketplace(salt, deployer, bank.NewLedger())
		require.NoError(t, err)
		require.NotNil(t, mkt)
		assert.Equal(t, f.DeterministicAddress(salt, KindMarketplace), addr)
		assert.Equal(t, addr, mkt.Address())

		got, ok := f.Marketplace(addr)
		require.True(t, ok)
		assert.Same(t, mkt, got)

		_, _, err = f.DeployMarketplace(salt, deployer, bank.NewLedger())
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})
}

func TestRegisterCollection(t *testing.T) {
	f, err := New(deployer)
	require.NoError(t, err)

	addr := util.MustNewEthereumAddressFromString("0x3333333333333333333333333333333333333333")
	reg := registry.NewSingleEdition()

	require.NoError(t, f.RegisterCollection(addr, reg))
	got, ok := f.Registry(addr)
	require.True(t, ok)
	assert.Same(t, types.AssetRegistry(reg), got)

	t.Run("address reuse is refused", func(t *testing.T) {
		err := f.RegisterCollection(addr, registry.NewSingleEdition())
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("zero address is refused", func(t *testing.T) {
		err := f.RegisterCollection(util.ZeroAddress, reg)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("nil registry is refused", func(t *testing.T) {
		other := util.MustNewEthereumAddressFromString("0x4444444444444444444444444444444444444444")
		err := f.RegisterCollection(other, nil)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})
}

func TestUnknownLookups(t *testing.T) {
	f, err := New(deployer)
	require.NoError(t, err)

	_, ok := f.Registry(deployer)
	assert.False(t, ok)
	_, ok = f.Marketplace(deployer)
	assert.False(t, ok)
}
