// Package narrative produces the display-only text attached to a report.
// Nothing here feeds back into scoring.
package narrative

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/types"
)

// Facts is what a narrator may describe
type Facts struct {
	Symbol     string
	Name       string
	Price      float64
	MarketCap  float64
	Volume24h  float64
	TrustScore int
	RiskLevel  types.RiskLevel
}

// Explanation is the three-part narrative
type Explanation struct {
	Overview       string
	RiskAssessment string
	Recommendation string
}

// Narrator generates flavor text. Implementations may call out to a
// language model; errors are replaced with the fallback text.
type Narrator interface {
	Summarize(ctx context.Context, facts Facts) (string, error)
	Explain(ctx context.Context, facts Facts) (Explanation, error)
}

// NoopNarrator always returns the fallback text
type NoopNarrator struct{}

func (NoopNarrator) Summarize(_ context.Context, facts Facts) (string, error) {
	return FallbackSummary(facts), nil
}

func (NoopNarrator) Explain(_ context.Context, facts Facts) (Explanation, error) {
	return FallbackExplanation(facts), nil
}

// FallbackSummary renders "SYMBOL - NAME | Price: $p | Market Cap: $mc"
func FallbackSummary(f Facts) string {
	return fmt.Sprintf("%s - %s | Price: $%s | Market Cap: $%s",
		f.Symbol, f.Name, strconv.FormatFloat(f.Price, 'f', -1, 64), humanize.Commaf(f.MarketCap))
}

// FallbackExplanation is the canned narrative used when no narrator answers
func FallbackExplanation(f Facts) Explanation {
	return Explanation{
		Overview:       "AI analysis unavailable",
		RiskAssessment: fmt.Sprintf("Token has %s risk based on standard metrics", f.RiskLevel),
		Recommendation: "Do your own research before investing",
	}
}

// Generate runs n and falls back on any error. generated is false when
// the fallback was used for either part.
func Generate(ctx context.Context, n Narrator, f Facts) (summary string, explanation Explanation, generated bool) {
	logger := logging.FromContext(ctx).WithField("symbol", f.Symbol)
	generated = true

	summary, err := n.Summarize(ctx, f)
	if err != nil || summary == "" {
		logger.WithError(err).Debug("Narrative summary unavailable, using fallback")
		summary = FallbackSummary(f)
		generated = false
	}

	explanation, err = n.Explain(ctx, f)
	if err != nil {
		logger.WithError(err).Debug("Narrative explanation unavailable, using fallback")
		explanation = FallbackExplanation(f)
		generated = false
	}

	if _, noop := n.(NoopNarrator); noop {
		generated = false
	}
	return summary, explanation, generated
}
