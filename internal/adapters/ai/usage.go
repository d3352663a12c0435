package ai

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"halomind/internal/metrics"
)

var million = decimal.NewFromInt(1_000_000)

// Price is a USD per-million-token price pair
type Price struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

// Cost returns the price of the given token counts
func (p Price) Cost(u Usage) decimal.Decimal {
	in := p.Input.Mul(decimal.NewFromInt(u.InputTokens)).Div(million)
	out := p.Output.Mul(decimal.NewFromInt(u.OutputTokens)).Div(million)
	return in.Add(out)
}

// ProviderUsage is the accumulated consumption of one provider/model pair
type ProviderUsage struct {
	Provider     ProviderName    `json:"provider"`
	Model        string          `json:"model"`
	Calls        int64           `json:"calls"`
	InputTokens  int64           `json:"inputTokens"`
	OutputTokens int64           `json:"outputTokens"`
	CostUSD      decimal.Decimal `json:"costUsd"`
}

// UsageTracker tracks token and cost usage per provider/model.
type UsageTracker struct {
	mu     sync.Mutex
	prices map[ProviderName]Price
	usage  map[string]*ProviderUsage
}

// NewUsageTracker creates a tracker with per-provider prices
func NewUsageTracker(prices map[ProviderName]Price) *UsageTracker {
	return &UsageTracker{prices: prices, usage: make(map[string]*ProviderUsage)}
}

// Record accumulates the usage of a response and exports it as metrics
func (t *UsageTracker) Record(resp *Response) {
	if t == nil || resp == nil {
		return
	}

	cost := t.prices[resp.Provider].Cost(resp.Usage)

	t.mu.Lock()
	key := fmt.Sprintf("%s:%s", resp.Provider, resp.Model)
	entry, ok := t.usage[key]
	if !ok {
		entry = &ProviderUsage{Provider: resp.Provider, Model: resp.Model}
		t.usage[key] = entry
	}
	entry.Calls++
	entry.InputTokens += resp.Usage.InputTokens
	entry.OutputTokens += resp.Usage.OutputTokens
	entry.CostUSD = entry.CostUSD.Add(cost)
	t.mu.Unlock()

	metrics.RecordUsage(resp.Provider.String(), resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens, cost.InexactFloat64())
}

// Snapshot returns the accumulated usage ordered by provider and model
func (t *UsageTracker) Snapshot() []ProviderUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ProviderUsage, 0, len(t.usage))
	for _, v := range t.usage {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// TotalCost sums the cost of every recorded call
func (t *UsageTracker) TotalCost() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := decimal.Zero
	for _, v := range t.usage {
		total = total.Add(v.CostUSD)
	}
	return total
}
