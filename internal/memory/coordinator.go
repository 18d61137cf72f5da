package memory

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
	"github.com/lunexa/zimlaw-orchestrator/internal/tokenutil"
)

// shortTermBudgetFraction and longTermBudgetFraction split the memory
// section of the synthesis prompt 70/30 between recent conversation turns
// and the long-term profile summary, favoring immediate context.
const (
	shortTermBudgetFraction = 0.7
	longTermBudgetFraction  = 0.3
)

// topInterestCount bounds how many legal areas surface in the long-term
// summary.
const topInterestCount = 5

// Coordinator assembles the bounded memory context handed to synthesis,
// fetching the short-term window and long-term profile concurrently and
// packing both into a fixed overall token budget.
type Coordinator struct {
	shortTerm *ShortTermStore
	longTerm  *LongTermStore
	counter   *tokenutil.Counter
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(shortTerm *ShortTermStore, longTerm *LongTermStore, counter *tokenutil.Counter) *Coordinator {
	return &Coordinator{shortTerm: shortTerm, longTerm: longTerm, counter: counter}
}

// Context is the assembled, budget-capped memory handed to synthesis.
type Context struct {
	RecentTurns       []model.ShortTermRecord
	ProfileSummary    string
	IsReturningUser   bool
	TypicalComplexity model.Complexity
	ExpertiseLevel    model.UserType
	TopLegalInterests []string
}

// Assemble fetches sessionID's recent turns and userID's long-term profile,
// then truncates each into its share of tokenBudget.
func (c *Coordinator) Assemble(ctx context.Context, sessionID, userID string, tokenBudget int) (Context, error) {
	var recent []model.ShortTermRecord
	var profile model.LongTermProfile

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		recent = c.shortTerm.Recent(gctx, sessionID)
		return nil
	})
	group.Go(func() error {
		var err error
		profile, err = c.longTerm.Get(gctx, userID)
		return err
	})
	if err := group.Wait(); err != nil {
		return Context{}, fmt.Errorf("memory.Coordinator.Assemble: %w", err)
	}

	shortBudget := int(float64(tokenBudget) * shortTermBudgetFraction)
	longBudget := int(float64(tokenBudget) * longTermBudgetFraction)

	truncatedTurns := truncateTurns(recent, c.counter, shortBudget)
	interests := profile.TopLegalInterests(topInterestCount)
	summary := c.counter.Truncate(buildProfileSummary(profile, interests), longBudget)

	return Context{
		RecentTurns:       truncatedTurns,
		ProfileSummary:    summary,
		IsReturningUser:   profile.IsReturningUser(),
		TypicalComplexity: profile.TypicalComplexity,
		ExpertiseLevel:    profile.Expertise,
		TopLegalInterests: interests,
	}, nil
}

// truncateTurns drops the oldest turns first until the remaining turns'
// combined token count fits budget.
func truncateTurns(turns []model.ShortTermRecord, counter *tokenutil.Counter, budget int) []model.ShortTermRecord {
	total := 0
	counts := make([]int, len(turns))
	for i, t := range turns {
		counts[i] = counter.Count(t.Content)
		total += counts[i]
	}

	start := 0
	for total > budget && start < len(turns) {
		total -= counts[start]
		start++
	}
	return turns[start:]
}

func buildProfileSummary(profile model.LongTermProfile, interests []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User has asked %d prior questions", profile.QueryCount)
	if len(interests) > 0 {
		fmt.Fprintf(&b, ", most frequently about %s", strings.Join(interests, ", "))
	}
	fmt.Fprintf(&b, ". Typical complexity: %s. Expertise: %s.", profile.TypicalComplexity, profile.Expertise)
	return b.String()
}
