package relay

// Usage tracks token consumption for a single model turn, normalized
// from the provider's usage metadata:
//
//	InputTokens   = prompt tokens, including any cached portion
//	OutputTokens  = candidate (response) tokens
//	ThoughtTokens = tokens spent on thinking, billed as output
//	CachedTokens  = prompt tokens served from context cache
//
// CachedTokens is a subset of InputTokens, not an addition to it.
type Usage struct {
	InputTokens   int
	OutputTokens  int
	ThoughtTokens int
	CachedTokens  int
}

// Add accumulates another turn's usage into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.ThoughtTokens += other.ThoughtTokens
	u.CachedTokens += other.CachedTokens
}
