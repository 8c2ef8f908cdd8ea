package order

// BackendSwapShortfall controls how a backend-initiated swap resolves when the
// pool quote does not cover the expected receive amount. The authoritative
// rule is not fixed by the observable behavior, so it stays configurable.
type BackendSwapShortfall int

const (
	// ShortfallRevert keeps the order active without executing the swap.
	ShortfallRevert BackendSwapShortfall = iota
	// ShortfallCancel closes the order, returning the remaining spent tokens
	// to the owner.
	ShortfallCancel
)

// Options represents configuration options for order actors.
type Options struct {
	MailboxSize          int
	BackendSwapShortfall BackendSwapShortfall
}

// DefaultOptions returns the default order options.
func DefaultOptions() *Options {
	return &Options{
		MailboxSize:          64,
		BackendSwapShortfall: ShortfallRevert,
	}
}
