package planner

import (
	"reflect"
	"testing"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

func TestPlanMixSumsToQuestionCount(t *testing.T) {
	for _, category := range assessment.Categories() {
		for count := 5; count <= 20; count++ {
			mix := PlanMix(category, count, nil)

			total := 0
			for archetype, n := range mix {
				if n < 0 {
					t.Fatalf("%s/%d: negative count for %s", category, count, archetype)
				}
				total += n
			}
			if total != count {
				t.Errorf("%s/%d: mix sums to %d: %v", category, count, total, mix)
			}
		}
	}
}

func TestPlanMixUnknownCategoryFallsBackToGeneral(t *testing.T) {
	got := PlanMix(assessment.RoleCategory("astronautics"), 8, nil)
	want := PlanMix(assessment.CategoryGeneral, 8, nil)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("unknown category mix %v, want general mix %v", got, want)
	}
}

func TestPlanMixOverrides(t *testing.T) {
	overrides := map[assessment.Archetype]float64{
		assessment.ArchetypeCrisisResponse:      1,
		assessment.ArchetypeStakeholderConflict: 0,
		assessment.ArchetypeCommunicationDraft:  0,
		assessment.ArchetypePrioritization:      0,
		assessment.ArchetypeAnalysisCase:        0,
		assessment.ArchetypeProcessDesign:       0,
	}

	mix := PlanMix(assessment.CategorySales, 6, overrides)
	if mix[assessment.ArchetypeCrisisResponse] != 6 {
		t.Errorf("expected all questions on crisis_response, got %v", mix)
	}
	if len(mix) != 1 {
		t.Errorf("zero-weighted archetypes should be dropped, got %v", mix)
	}
}

func TestPlanMixZeroedOverridesFallBackToBase(t *testing.T) {
	overrides := make(map[assessment.Archetype]float64)
	for _, archetype := range assessment.Archetypes() {
		overrides[archetype] = 0
	}

	mix := PlanMix(assessment.CategorySales, 8, overrides)

	total := 0
	for _, n := range mix {
		total += n
	}
	if total != 8 {
		t.Errorf("fallback mix sums to %d: %v", total, mix)
	}
}

func TestPlanMixDeterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		first := PlanMix(assessment.CategoryEngineering, 11, nil)
		second := PlanMix(assessment.CategoryEngineering, 11, nil)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("plan changed between runs: %v vs %v", first, second)
		}
	}
}

func TestEstimateMinutes(t *testing.T) {
	mix := map[assessment.Archetype]int{
		assessment.ArchetypeCrisisResponse:     2, // 24 min
		assessment.ArchetypePrioritization:     2, // 16 min
		assessment.ArchetypeCommunicationDraft: 4, // 40 min
	}

	// 80 raw minutes with the 1.15 buffer applied.
	if got := EstimateMinutes(mix); got != 92 {
		t.Errorf("EstimateMinutes = %d, want 92", got)
	}

	if got := EstimateMinutes(nil); got != 0 {
		t.Errorf("empty mix should estimate 0 minutes, got %d", got)
	}
}

func TestMinutesDefaultsUnknownArchetype(t *testing.T) {
	if got := Minutes(assessment.Archetype("interpretive_dance")); got != defaultArchetypeMinutes {
		t.Errorf("unknown archetype minutes = %d, want %d", got, defaultArchetypeMinutes)
	}
}
