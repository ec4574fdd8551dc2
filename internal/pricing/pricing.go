package pricing

import "fmt"

// TokenUsage counts billable tokens for one API response.
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add accumulates another usage record.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Rate holds per-million-token prices for one model.
type Rate struct {
	ID               string
	InputPerMillion  float64
	OutputPerMillion float64
}

// rates lists the models with known pricing. Unknown models report token
// counts only.
var rates = []Rate{
	{ID: "gemini-2.5-pro", InputPerMillion: 1.25, OutputPerMillion: 10.00},
	{ID: "gemini-2.5-flash", InputPerMillion: 0.30, OutputPerMillion: 2.50},
	{ID: "gemini-3-pro-preview", InputPerMillion: 2.00, OutputPerMillion: 12.00},
	{ID: "gemini-3-flash-preview", InputPerMillion: 0.50, OutputPerMillion: 3.00},
	{ID: "gpt-4o", InputPerMillion: 2.50, OutputPerMillion: 10.00},
	{ID: "gpt-4o-mini", InputPerMillion: 0.15, OutputPerMillion: 0.60},
	{ID: "gpt-5.2", InputPerMillion: 1.75, OutputPerMillion: 14.00},
	{ID: "deepseek-chat", InputPerMillion: 0.27, OutputPerMillion: 1.10},
	{ID: "deepseek-reasoner", InputPerMillion: 0.55, OutputPerMillion: 2.19},
}

// Lookup returns the rate for a model id. The second result is false when the
// model has no known pricing.
func Lookup(model string) (Rate, bool) {
	for _, r := range rates {
		if r.ID == model {
			return r, true
		}
	}
	return Rate{ID: model}, false
}

// Cost computes the dollar cost of a usage record under a model's rates.
// Unknown models cost 0; callers surface a warning and report tokens only.
func Cost(model string, usage TokenUsage) (float64, bool) {
	rate, ok := Lookup(model)
	if !ok {
		return 0, false
	}
	cost := (float64(usage.InputTokens)/1_000_000)*rate.InputPerMillion +
		(float64(usage.OutputTokens)/1_000_000)*rate.OutputPerMillion
	return cost, true
}

// ModelTotal aggregates usage and cost for one model across a run.
type ModelTotal struct {
	Model      string
	Usage      TokenUsage
	Cost       float64
	KnownRates bool
}

// Aggregator sums usage per model.
type Aggregator struct {
	totals map[string]*ModelTotal
	order  []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{totals: make(map[string]*ModelTotal)}
}

// Record adds one response's usage under the given model.
func (a *Aggregator) Record(model string, usage TokenUsage) {
	t, ok := a.totals[model]
	if !ok {
		_, known := Lookup(model)
		t = &ModelTotal{Model: model, KnownRates: known}
		a.totals[model] = t
		a.order = append(a.order, model)
	}
	t.Usage.Add(usage)
	t.Cost, _ = Cost(model, t.Usage)
}

// Totals returns per-model totals in first-seen order.
func (a *Aggregator) Totals() []ModelTotal {
	out := make([]ModelTotal, 0, len(a.order))
	for _, m := range a.order {
		out = append(out, *a.totals[m])
	}
	return out
}

// GrandTotal sums the cost of all models with known rates.
func (a *Aggregator) GrandTotal() float64 {
	var total float64
	for _, t := range a.totals {
		total += t.Cost
	}
	return total
}

// Summary renders a short per-model accounting block.
func (a *Aggregator) Summary() string {
	out := ""
	for _, t := range a.Totals() {
		if t.KnownRates {
			out += fmt.Sprintf("  %s: in=%d out=%d cost=$%.4f\n", t.Model, t.Usage.InputTokens, t.Usage.OutputTokens, t.Cost)
		} else {
			out += fmt.Sprintf("  %s: in=%d out=%d (no pricing data)\n", t.Model, t.Usage.InputTokens, t.Usage.OutputTokens)
		}
	}
	return out
}
