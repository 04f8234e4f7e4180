// Package assistant defines the pluggable question-answering capability the
// dashboard's helper panel talks to. The production deployment currently
// ships the canned implementation; a real inference backend only needs to
// satisfy Assistant.
package assistant

import (
	"context"
	"strings"
)

// Assistant answers free-form viticulture questions.
type Assistant interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Canned is a keyword-matched Assistant with fixed responses.
type Canned struct{}

// NewCanned creates a Canned assistant.
func NewCanned() *Canned {
	return &Canned{}
}

func (c *Canned) Answer(_ context.Context, query string) (string, error) {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "gdd") || strings.Contains(q, "degree day"):
		return "Growing Degree Days accumulate as max(0, (daily high + daily low)/2 - base temperature). Check a block's GDD chart to compare seasonal heat against prior years.", nil
	case strings.Contains(q, "budbreak") || strings.Contains(q, "bud break"):
		return "Budbreak for most Vitis vinifera varieties typically arrives between 100 and 250 cumulative GDD (base 50°F), depending on variety and site.", nil
	case strings.Contains(q, "veraison"):
		return "Veraison commonly begins around 1,600 to 2,200 cumulative GDD (base 50°F). Track your block's cumulative curve against phenology notes from past seasons.", nil
	case strings.Contains(q, "frost"):
		return "Watch forecast lows in the weather panel; overhead irrigation or wind machines are most effective when started before temperatures reach the critical threshold for the current growth stage.", nil
	default:
		return "I can help with Growing Degree Days, phenology stages like budbreak and veraison, and reading your weather history. Try asking about one of those.", nil
	}
}
