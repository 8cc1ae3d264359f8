package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"cinepick/models"
)

const (
	genericErrorExplanation = "Something went wrong while putting your recommendations together. Please try again."
	noMatchExplanation      = "I couldn't find anything in the catalog for that. Try describing a mood, a genre or a title you liked."
)

// TitleResolver resolves a query to catalog items. *Resolver implements it.
type TitleResolver interface {
	Resolve(ctx context.Context, q Query) []models.CatalogItem
}

// AssemblerConfig tunes the assembler. Zero fields fall back to defaults.
type AssemblerConfig struct {
	MinRating           float64
	MaxResults          int
	FallbackKeywords    int
	QuotedTitleFallback bool
}

// Assembler turns a finished model reply into a recommendation envelope.
type Assembler struct {
	parser           Parser
	resolver         TitleResolver
	minRating        float64
	maxResults       int
	fallbackKeywords int
}

// NewAssembler wires an assembler around resolver.
func NewAssembler(resolver TitleResolver, cfg AssemblerConfig) *Assembler {
	a := &Assembler{
		parser:           Parser{QuotedTitleFallback: cfg.QuotedTitleFallback},
		resolver:         resolver,
		minRating:        cfg.MinRating,
		maxResults:       cfg.MaxResults,
		fallbackKeywords: cfg.FallbackKeywords,
	}
	if a.minRating < 0 {
		a.minRating = 0
	}
	if a.maxResults <= 0 || a.maxResults > models.MaxRecommendations {
		a.maxResults = models.MaxRecommendations
	}
	if a.fallbackKeywords <= 0 {
		a.fallbackKeywords = 3
	}
	return a
}

// MinRating reports the rating floor applied to every resolution.
func (a *Assembler) MinRating() float64 { return a.minRating }

// Preview builds the provisional envelope shown while resolution is running.
func (a *Assembler) Preview(raw string) models.RecommendationEnvelope {
	completion, _ := a.parser.Parse(raw)
	return models.RecommendationEnvelope{
		Explanation: completion.Explanation,
		Status:      models.StatusProcessing,
	}
}

// Assemble parses raw, resolves the named titles with a keyword fallback and returns
// a complete envelope. It never returns an error: failures, panics and context expiry
// become an envelope with status error and no recommendations.
func (a *Assembler) Assemble(ctx context.Context, raw string) (env models.RecommendationEnvelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[assembler] recovered from panic: %v", rec)
			env = errorEnvelope(raw)
		}
	}()

	completion, err := a.parser.Parse(raw)
	if err != nil {
		log.Printf("[assembler] %v; treating reply as plain explanation", err)
	}

	matches := a.resolveEntries(ctx, completion.Entries)
	if len(matches) == 0 && len(completion.Keywords) > 0 {
		matches = a.resolveKeywords(ctx, completion.Keywords)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Printf("[assembler] resolution abandoned: %v", ctxErr)
		return errorEnvelope(raw)
	}

	recs := a.finalize(matches)
	explanation := completion.Explanation
	if explanation == "" && len(recs) == 0 {
		explanation = noMatchExplanation
	}
	return models.RecommendationEnvelope{
		Explanation:     explanation,
		Recommendations: recs,
		Status:          models.StatusComplete,
	}
}

// resolveEntries looks up each distinct title once, concurrently, and returns the
// first hit per entry in entry order.
func (a *Assembler) resolveEntries(ctx context.Context, entries []models.RecommendationEntry) []models.ResolvedRecommendation {
	if len(entries) == 0 {
		return nil
	}

	type lookup struct {
		title string
		hint  models.MediaType
	}
	keys := make([]string, len(entries))
	lookups := make(map[string]lookup)
	order := []string{}
	for i, entry := range entries {
		hint := models.MediaTypeTV
		if entry.MediaTypeHint != nil && entry.MediaTypeHint.Valid() {
			hint = *entry.MediaTypeHint
		}
		key := string(hint) + "|" + normalizeTitle(entry.Title)
		keys[i] = key
		if _, ok := lookups[key]; !ok {
			lookups[key] = lookup{title: entry.Title, hint: hint}
			order = append(order, key)
		}
	}

	found := make([]*models.CatalogItem, len(order))
	p := pool.New().WithMaxGoroutines(a.maxResults)
	for i, key := range order {
		l := lookups[key]
		p.Go(func() {
			items := a.resolver.Resolve(ctx, Query{
				Keywords:  []string{l.title},
				MediaType: FilterFor(l.hint),
				MinRating: a.minRating,
			})
			if len(items) == 0 {
				log.Printf("[assembler] no catalog match for %q (%s)", l.title, l.hint)
				return
			}
			item := items[0]
			found[i] = &item
		})
	}
	p.Wait()

	byKey := make(map[string]*models.CatalogItem, len(order))
	for i, key := range order {
		byKey[key] = found[i]
	}
	out := make([]models.ResolvedRecommendation, 0, len(entries))
	for i, entry := range entries {
		item := byKey[keys[i]]
		if item == nil {
			continue
		}
		out = append(out, models.ResolvedRecommendation{CatalogItem: *item, AIReason: entry.Reason})
	}
	return out
}

// resolveKeywords runs the first few keywords as independent queries across both
// media types and concatenates every hit in keyword order.
func (a *Assembler) resolveKeywords(ctx context.Context, keywords []string) []models.ResolvedRecommendation {
	if len(keywords) > a.fallbackKeywords {
		keywords = keywords[:a.fallbackKeywords]
	}
	hits := make([][]models.CatalogItem, len(keywords))
	p := pool.New()
	for i, kw := range keywords {
		p.Go(func() {
			hits[i] = a.resolver.Resolve(ctx, Query{
				Keywords:  []string{kw},
				MediaType: FilterAll,
				MinRating: a.minRating,
			})
		})
	}
	p.Wait()

	out := []models.ResolvedRecommendation{}
	for _, items := range hits {
		for _, item := range items {
			out = append(out, models.ResolvedRecommendation{CatalogItem: item})
		}
	}
	return out
}

// finalize drops repeated catalog IDs, keeping the first, and applies the cap.
func (a *Assembler) finalize(matches []models.ResolvedRecommendation) []models.ResolvedRecommendation {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(matches))
	out := make([]models.ResolvedRecommendation, 0, a.maxResults)
	for _, m := range matches {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
		if len(out) == a.maxResults {
			break
		}
	}
	return out
}

func errorEnvelope(raw string) models.RecommendationEnvelope {
	explanation := strings.TrimSpace(raw)
	if explanation == "" {
		explanation = genericErrorExplanation
	}
	return models.RecommendationEnvelope{
		Explanation: explanation,
		Status:      models.StatusError,
	}
}

// FailureEnvelope builds the error envelope for a turn whose completion never finished.
// Partial text, when any arrived, is kept as the explanation.
func FailureEnvelope(partial string, cause error) models.RecommendationEnvelope {
	if cause != nil && !errors.Is(cause, context.Canceled) {
		log.Printf("[assembler] turn failed: %v", cause)
	}
	env := errorEnvelope(partial)
	if strings.TrimSpace(partial) == "" && cause != nil && errors.Is(cause, context.DeadlineExceeded) {
		env.Explanation = fmt.Sprintf("The request timed out. %s", genericErrorExplanation)
	}
	return env
}
