package orderv1

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: Root payload round-trips exactly
func TestRootPayload_RoundTrip(t *testing.T) {
	in := RootPayload{
		TokenReceive:        common.HexToAddress("0xaaaa000000000000000000000000000000000001"),
		ExpectedTokenAmount: big.NewInt(20_000),
		DeployWalletValue:   big.NewInt(100),
		BackPK:              new(big.Int).SetBytes([]byte{0xde, 0xad, 0xbe, 0xef}),
	}

	data, err := EncodeRootPayload(in)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	out, err := DecodeRootPayload(data)
	require.NoError(t, err)
	assert.Equal(t, in.TokenReceive, out.TokenReceive)
	assert.Zero(t, in.ExpectedTokenAmount.Cmp(out.ExpectedTokenAmount))
	assert.Zero(t, in.DeployWalletValue.Cmp(out.DeployWalletValue))
	assert.Zero(t, in.BackPK.Cmp(out.BackPK))
}

// Test 2: Root payload with nil optional fields decodes to zeros
func TestRootPayload_NilOptionals(t *testing.T) {
	in := RootPayload{
		TokenReceive:        common.HexToAddress("0xaaaa000000000000000000000000000000000002"),
		ExpectedTokenAmount: big.NewInt(1),
	}

	data, err := EncodeRootPayload(in)
	require.NoError(t, err)

	out, err := DecodeRootPayload(data)
	require.NoError(t, err)
	assert.Zero(t, out.DeployWalletValue.Sign())
	assert.Zero(t, out.BackPK.Sign())
}

// Test 3: Fill payload round-trips exactly
func TestFillPayload_RoundTrip(t *testing.T) {
	in := FillPayload{
		DeployWalletValue: big.NewInt(42),
		CallID:            7,
	}

	data, err := EncodeFillPayload(in)
	require.NoError(t, err)

	out, err := DecodeFillPayload(data)
	require.NoError(t, err)
	assert.Zero(t, in.DeployWalletValue.Cmp(out.DeployWalletValue))
	assert.Equal(t, uint64(7), out.CallID)
}

// Test 4: Garbage bytes are rejected as invalid payloads
func TestDecode_Garbage(t *testing.T) {
	_, err := DecodeRootPayload([]byte{0x01, 0x02, 0x03})
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	_, err = DecodeFillPayload(nil)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

// Test 5: Kind tags are not interchangeable between the two layouts
func TestDecode_WrongKind(t *testing.T) {
	rootData, err := EncodeRootPayload(RootPayload{
		TokenReceive:        common.HexToAddress("0xaaaa000000000000000000000000000000000003"),
		ExpectedTokenAmount: big.NewInt(5),
	})
	require.NoError(t, err)

	_, err = DecodeFillPayload(rootData)
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	fillData, err := EncodeFillPayload(FillPayload{CallID: 1})
	require.NoError(t, err)

	_, err = DecodeRootPayload(fillData)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}
