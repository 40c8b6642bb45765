package plan

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

func TestPlanDepthBudgets(t *testing.T) {
	tests := []struct {
		depth   types.Depth
		minWant int
		maxWant int // 0 means unbounded
	}{
		{types.DepthBasic, 3, 5},
		{types.DepthIntermediate, 5, 8},
		{types.DepthDeep, 7, 10},
		{types.DepthComprehensive, 10, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.depth), func(t *testing.T) {
			queries := Plan("quantum computing", tt.depth, "en")
			if len(queries) < tt.minWant {
				t.Errorf("got %d queries, want at least %d", len(queries), tt.minWant)
			}
			if tt.maxWant > 0 && len(queries) > tt.maxWant {
				t.Errorf("got %d queries, want at most %d", len(queries), tt.maxWant)
			}
		})
	}
}

func TestPlanSeedQueryIsTopicVerbatim(t *testing.T) {
	queries := Plan("renewable energy trends", types.DepthBasic, "en")
	if len(queries) == 0 || queries[0] != "renewable energy trends" {
		t.Errorf("first query = %q, want topic verbatim", queries[0])
	}
}

func TestPlanDeterministic(t *testing.T) {
	a := Plan("AI ethics", types.DepthDeep, "en")
	b := Plan("AI ethics", types.DepthDeep, "en")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different plans:\n%v\n%v", a, b)
	}
}

func TestPlanQueriesContainTopic(t *testing.T) {
	for _, q := range Plan("solar power", types.DepthComprehensive, "en") {
		if !strings.Contains(q, "solar power") {
			t.Errorf("query %q does not contain the topic", q)
		}
	}
}

func TestPlanEmptyTopic(t *testing.T) {
	if got := Plan("  ", types.DepthBasic, "en"); got != nil {
		t.Errorf("Plan on blank topic = %v, want nil", got)
	}
}

func TestPlanUnknownDepthFallsBack(t *testing.T) {
	queries := Plan("X", types.Depth("bogus"), "en")
	if len(queries) < 5 || len(queries) > 8 {
		t.Errorf("unknown depth should use intermediate budget, got %d queries", len(queries))
	}
}
