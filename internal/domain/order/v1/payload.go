package orderv1

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// PayloadKind tags the two payload layouts carried by transfer notifications.
type PayloadKind uint8

const (
	// PayloadKindRoot tags an order-creation payload consumed by a root.
	PayloadKindRoot PayloadKind = 1
	// PayloadKindFill tags a fill payload consumed by a deployed order.
	PayloadKindFill PayloadKind = 2
)

// RootPayload carries the parameters of a new order. It is built by
// OrderRoot.BuildPayload, attached to the creating spent-token transfer and
// decoded back by the root on delivery; encoding round-trips exactly.
type RootPayload struct {
	TokenReceive        common.Address
	ExpectedTokenAmount *big.Int
	DeployWalletValue   *big.Int
	BackPK              *big.Int
}

// FillPayload tags a counter-party fill transfer to a deployed order.
type FillPayload struct {
	DeployWalletValue *big.Int
	CallID            uint64
}

var (
	uint8T, _   = abi.NewType("uint8", "", nil)
	uint64T, _  = abi.NewType("uint64", "", nil)
	uint128T, _ = abi.NewType("uint128", "", nil)
	uint256T, _ = abi.NewType("uint256", "", nil)
	addressT, _ = abi.NewType("address", "", nil)

	rootPayloadArgs = abi.Arguments{
		{Name: "kind", Type: uint8T},
		{Name: "tokenReceive", Type: addressT},
		{Name: "expectedTokenAmount", Type: uint128T},
		{Name: "deployWalletValue", Type: uint128T},
		{Name: "backPK", Type: uint256T},
	}

	fillPayloadArgs = abi.Arguments{
		{Name: "kind", Type: uint8T},
		{Name: "deployWalletValue", Type: uint128T},
		{Name: "callId", Type: uint64T},
	}
)

// EncodeRootPayload packs p into an opaque byte payload.
func EncodeRootPayload(p RootPayload) ([]byte, error) {
	if p.ExpectedTokenAmount == nil || p.ExpectedTokenAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: expected token amount must be positive", ErrInvalidPayload)
	}
	return rootPayloadArgs.Pack(
		uint8(PayloadKindRoot),
		p.TokenReceive,
		p.ExpectedTokenAmount,
		orZero(p.DeployWalletValue),
		orZero(p.BackPK),
	)
}

// DecodeRootPayload unpacks a payload produced by EncodeRootPayload.
func DecodeRootPayload(data []byte) (RootPayload, error) {
	values, err := rootPayloadArgs.Unpack(data)
	if err != nil {
		return RootPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	kind, ok := values[0].(uint8)
	if !ok || PayloadKind(kind) != PayloadKindRoot {
		return RootPayload{}, fmt.Errorf("%w: not an order creation payload", ErrInvalidPayload)
	}
	p := RootPayload{
		TokenReceive:        values[1].(common.Address),
		ExpectedTokenAmount: values[2].(*big.Int),
		DeployWalletValue:   values[3].(*big.Int),
		BackPK:              values[4].(*big.Int),
	}
	if p.ExpectedTokenAmount.Sign() <= 0 {
		return RootPayload{}, fmt.Errorf("%w: expected token amount must be positive", ErrInvalidPayload)
	}
	return p, nil
}

// EncodeFillPayload packs p into an opaque byte payload.
func EncodeFillPayload(p FillPayload) ([]byte, error) {
	return fillPayloadArgs.Pack(
		uint8(PayloadKindFill),
		orZero(p.DeployWalletValue),
		p.CallID,
	)
}

// DecodeFillPayload unpacks a payload produced by EncodeFillPayload.
func DecodeFillPayload(data []byte) (FillPayload, error) {
	values, err := fillPayloadArgs.Unpack(data)
	if err != nil {
		return FillPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	kind, ok := values[0].(uint8)
	if !ok || PayloadKind(kind) != PayloadKindFill {
		return FillPayload{}, fmt.Errorf("%w: not a fill payload", ErrInvalidPayload)
	}
	return FillPayload{
		DeployWalletValue: values[1].(*big.Int),
		CallID:            values[2].(uint64),
	}, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
