package usage

import (
	"sync"

	"pkt.systems/inkwell/schema"
)

const (
	// DefaultPriceInput is the default price in dollars per million input tokens.
	DefaultPriceInput = 0.15
	// DefaultPriceOutput is the default price in dollars per million output tokens.
	DefaultPriceOutput = 0.60
)

// Pricing holds fixed per-million-token prices.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing returns the gpt-4o-mini prices.
func DefaultPricing() Pricing {
	return Pricing{InputPerMillion: DefaultPriceInput, OutputPerMillion: DefaultPriceOutput}
}

// Cost returns the dollar cost of the given token counts.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*p.InputPerMillion/1e6 + float64(outputTokens)*p.OutputPerMillion/1e6
}

// Ledger accumulates token usage and cost for one session.
// Totals only grow; there is no reset.
type Ledger struct {
	pricing Pricing

	mu     sync.Mutex
	input  int
	output int
	total  int
}

// NewLedger returns a zeroed ledger using the given prices.
func NewLedger(pricing Pricing) *Ledger {
	return &Ledger{pricing: pricing}
}

// Pricing returns the ledger's prices.
func (l *Ledger) Pricing() Pricing {
	return l.pricing
}

// Record adds one call's usage and returns it with its cost.
// Negative counters are treated as zero.
func (l *Ledger) Record(inputTokens, outputTokens, totalTokens int) schema.Usage {
	inputTokens = nonNegative(inputTokens)
	outputTokens = nonNegative(outputTokens)
	totalTokens = nonNegative(totalTokens)
	l.mu.Lock()
	l.input += inputTokens
	l.output += outputTokens
	l.total += totalTokens
	l.mu.Unlock()
	return schema.Usage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  totalTokens,
		Cost:         l.pricing.Cost(inputTokens, outputTokens),
	}
}

// Snapshot returns the session totals. Cost is derived from the token totals,
// so it does not depend on the order calls were recorded in.
func (l *Ledger) Snapshot() schema.Usage {
	if l == nil {
		return schema.Usage{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return schema.Usage{
		InputTokens:  l.input,
		OutputTokens: l.output,
		TotalTokens:  l.total,
		Cost:         l.pricing.Cost(l.input, l.output),
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
