package assembler

import "unicode/utf8"

// charsPerToken is the estimation ratio. The heuristic is calibrated for
// the provider's tokenizer at roughly 4 characters per token.
const charsPerToken = 4

// EstimateTokens approximates the token cost of a text block. Rune count
// keeps multi-byte text from being over-charged.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return utf8.RuneCountInString(s) / charsPerToken
}
