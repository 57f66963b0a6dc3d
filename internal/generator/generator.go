package generator

import (
	"context"
	"fmt"
	"math"

	api "github.com/bidready/draft-service/api/v1alpha1"
)

const (
	baseConfidence = 85

	// Ceiling applied when scope enhancement fails and the draft is built
	// from the unenhanced baseline scope.
	DegradedConfidenceCeiling = 60

	reviewPromptQuestion = "The scope text could not be polished automatically. Please review the baseline scope before sending."
)

// Size factors applied to the template's base price range.
var sizeFactors = map[api.JobSize]float64{
	api.JobSizeSmall:  0.85,
	api.JobSizeMedium: 1.0,
	api.JobSizeLarge:  1.35,
}

// Input is the fully resolved context a draft is computed from.
type Input struct {
	Job      api.JobDescriptor
	Template api.Template
	User     api.UserFactors
	Photos   []api.PhotoDescriptor
	Context  *api.DraftContext

	// MarketMultiplier defaults to 1.0 when unset.
	MarketMultiplier float64
}

// Generator computes a proposal draft from resolved context. Implementations
// are deterministic given their inputs, except for the scope-enhancement
// sub-step, whose failure degrades the result instead of propagating.
type Generator interface {
	Generate(ctx context.Context, in Input) (*api.Draft, error)
}

// Enhancer polishes baseline scope text. It is the one internal sub-step
// allowed to fail: the generator falls back to the baseline scope when it
// does.
type Enhancer interface {
	Enhance(ctx context.Context, trade string, scope []string, notes string) ([]string, error)
}

// ScopeGenerator is the reference Generator implementation.
type ScopeGenerator struct {
	enhancer Enhancer
}

// Make sure we conform to Generator interface
var _ Generator = (*ScopeGenerator)(nil)

func New(enhancer Enhancer) *ScopeGenerator {
	return &ScopeGenerator{enhancer: enhancer}
}

func (g *ScopeGenerator) Generate(ctx context.Context, in Input) (*api.Draft, error) {
	if in.Template.Trade == "" {
		return nil, fmt.Errorf("template is missing a trade")
	}

	market := in.MarketMultiplier
	if market == 0 {
		market = 1.0
	}

	sizeFactor, ok := sizeFactors[in.Job.Size]
	if !ok {
		sizeFactor = sizeFactors[api.JobSizeMedium]
	}

	userMult := in.User.PriceMultiplier
	if userMult == 0 {
		userMult = 1.0
	}
	tradeMult := 1.0
	if m, ok := in.User.TradeMultipliers[in.Job.Trade]; ok && m > 0 {
		tradeMult = m
	}

	price := api.PriceRange{
		Low:  scalePrice(in.Template.BasePrice.Low, sizeFactor, userMult, tradeMult, market),
		High: scalePrice(in.Template.BasePrice.High, sizeFactor, userMult, tradeMult, market),
	}
	// the high end of any range is clamped to be >= the low end
	if price.High < price.Low {
		price.High = price.Low
	}

	duration := scaleDuration(in.Template.BaselineDuration, sizeFactor)

	confidence := baseConfidence
	questions := g.openQuestions(in)

	scope := in.Template.ScopeItems
	degraded := false
	if g.enhancer != nil {
		enhanced, err := g.enhancer.Enhance(ctx, in.Job.Trade, scope, in.Job.Notes)
		if err != nil {
			// sub-failure: fall back to the baseline scope, never raise
			degraded = true
		} else {
			scope = enhanced
		}
	}

	if findingsPresent(in.Photos) {
		confidence += 5
	} else if len(in.Photos) == 0 {
		confidence -= 10
	}
	if in.Job.Notes == "" {
		confidence -= 5
	}

	if degraded {
		if confidence > DegradedConfidenceCeiling {
			confidence = DegradedConfidenceCeiling
		}
		questions = append(questions, reviewPromptQuestion)
	}
	confidence = clampConfidence(confidence)

	draft := &api.Draft{
		LineItems: []api.LineItem{
			{
				Trade:      in.Job.Trade,
				Scope:      scope,
				Price:      price,
				Duration:   duration,
				Warranty:   in.Template.Warranty,
				Exclusions: in.Template.Exclusions,
			},
		},
		Confidence:    confidence,
		OpenQuestions: questions,
	}
	return draft, nil
}

func (g *ScopeGenerator) openQuestions(in Input) []string {
	questions := []string{}
	if len(in.Photos) == 0 {
		questions = append(questions, "Could you share photos of the work area so we can confirm the scope?")
	}
	if in.Job.Notes == "" {
		questions = append(questions, "Are there any constraints or preferences we should know about before work starts?")
	}
	if in.Job.Size == api.JobSizeLarge {
		questions = append(questions, "Is the site accessible for larger equipment and material deliveries?")
	}
	return questions
}

// price = round(basePrice x sizeFactor x userMultiplier x tradeMultiplier x marketMultiplier)
func scalePrice(base int, factors ...float64) int {
	price := float64(base)
	for _, f := range factors {
		price *= f
	}
	return int(math.Round(price))
}

func scaleDuration(baseline api.DurationRange, sizeFactor float64) api.DurationRange {
	d := api.DurationRange{
		LowDays:  int(math.Round(float64(baseline.LowDays) * sizeFactor)),
		HighDays: int(math.Round(float64(baseline.HighDays) * sizeFactor)),
	}
	if d.LowDays < 1 {
		d.LowDays = 1
	}
	if d.HighDays < d.LowDays {
		d.HighDays = d.LowDays
	}
	return d
}

func findingsPresent(photos []api.PhotoDescriptor) bool {
	for _, p := range photos {
		if len(p.Findings) > 0 {
			return true
		}
	}
	return false
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
