package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/order"
	"github.com/muhammadchandra19/limit-order-engine/pkg/config"
)

// Options represents configuration options for the Engine.
type Options struct {
	FactoryAddress common.Address
	FactoryOwner   common.Address
	OrderOptions   *order.Options
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		FactoryAddress: deriveAddress("order-factory"),
		FactoryOwner:   deriveAddress("factory-owner"),
		OrderOptions:   order.DefaultOptions(),
	}
}

// OptionsFromConfig maps the environment configuration onto engine options.
func OptionsFromConfig(cfg config.EngineConfig) *Options {
	opts := DefaultEngineOptions()
	if cfg.MailboxSize > 0 {
		opts.OrderOptions.MailboxSize = cfg.MailboxSize
	}
	if cfg.BackendSwapShortfall == "cancel" {
		opts.OrderOptions.BackendSwapShortfall = order.ShortfallCancel
	}
	if cfg.FactoryOwner != "" {
		opts.FactoryOwner = common.HexToAddress(cfg.FactoryOwner)
	}
	return opts
}

func deriveAddress(label string) common.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("limit-order-engine/"))
	h.Write([]byte(label))
	return common.BytesToAddress(h.Sum(nil)[12:])
}
