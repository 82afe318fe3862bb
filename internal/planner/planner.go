// Package planner allocates an assessment's question budget across
// archetypes and estimates how long the result takes to complete.
package planner

import (
	"math"
	"sort"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

// bufferFactor inflates raw per-question minutes to cover reading and
// transition overhead between questions.
const bufferFactor = 1.15

const defaultArchetypeMinutes = 10

// archetypeMinutes is the typical time a candidate needs for one question of
// each archetype.
var archetypeMinutes = map[assessment.Archetype]int{
	assessment.ArchetypeCrisisResponse:      12,
	assessment.ArchetypeStakeholderConflict: 10,
	assessment.ArchetypeCommunicationDraft:  10,
	assessment.ArchetypePrioritization:      8,
	assessment.ArchetypeAnalysisCase:        12,
	assessment.ArchetypeProcessDesign:       10,
}

// baseWeights is the per-category archetype distribution the mix is planned
// from. Weights are relative; PlanMix rescales them to the question count.
var baseWeights = map[assessment.RoleCategory]map[assessment.Archetype]float64{
	assessment.CategorySales: {
		assessment.ArchetypeCrisisResponse:      0.15,
		assessment.ArchetypeStakeholderConflict: 0.20,
		assessment.ArchetypeCommunicationDraft:  0.25,
		assessment.ArchetypePrioritization:      0.20,
		assessment.ArchetypeAnalysisCase:        0.10,
		assessment.ArchetypeProcessDesign:       0.10,
	},
	assessment.CategoryCustomerSuccess: {
		assessment.ArchetypeCrisisResponse:      0.25,
		assessment.ArchetypeStakeholderConflict: 0.20,
		assessment.ArchetypeCommunicationDraft:  0.25,
		assessment.ArchetypePrioritization:      0.15,
		assessment.ArchetypeAnalysisCase:        0.05,
		assessment.ArchetypeProcessDesign:       0.10,
	},
	assessment.CategoryProduct: {
		assessment.ArchetypeCrisisResponse:      0.10,
		assessment.ArchetypeStakeholderConflict: 0.25,
		assessment.ArchetypeCommunicationDraft:  0.15,
		assessment.ArchetypePrioritization:      0.25,
		assessment.ArchetypeAnalysisCase:        0.15,
		assessment.ArchetypeProcessDesign:       0.10,
	},
	assessment.CategoryMarketing: {
		assessment.ArchetypeCrisisResponse:      0.10,
		assessment.ArchetypeStakeholderConflict: 0.15,
		assessment.ArchetypeCommunicationDraft:  0.30,
		assessment.ArchetypePrioritization:      0.15,
		assessment.ArchetypeAnalysisCase:        0.15,
		assessment.ArchetypeProcessDesign:       0.15,
	},
	assessment.CategoryEngineering: {
		assessment.ArchetypeCrisisResponse:      0.20,
		assessment.ArchetypeStakeholderConflict: 0.15,
		assessment.ArchetypeCommunicationDraft:  0.10,
		assessment.ArchetypePrioritization:      0.15,
		assessment.ArchetypeAnalysisCase:        0.20,
		assessment.ArchetypeProcessDesign:       0.20,
	},
	assessment.CategoryOperations: {
		assessment.ArchetypeCrisisResponse:      0.15,
		assessment.ArchetypeStakeholderConflict: 0.15,
		assessment.ArchetypeCommunicationDraft:  0.10,
		assessment.ArchetypePrioritization:      0.20,
		assessment.ArchetypeAnalysisCase:        0.15,
		assessment.ArchetypeProcessDesign:       0.25,
	},
	assessment.CategoryPeople: {
		assessment.ArchetypeCrisisResponse:      0.15,
		assessment.ArchetypeStakeholderConflict: 0.30,
		assessment.ArchetypeCommunicationDraft:  0.20,
		assessment.ArchetypePrioritization:      0.10,
		assessment.ArchetypeAnalysisCase:        0.10,
		assessment.ArchetypeProcessDesign:       0.15,
	},
	assessment.CategoryFinance: {
		assessment.ArchetypeCrisisResponse:      0.10,
		assessment.ArchetypeStakeholderConflict: 0.15,
		assessment.ArchetypeCommunicationDraft:  0.10,
		assessment.ArchetypePrioritization:      0.15,
		assessment.ArchetypeAnalysisCase:        0.30,
		assessment.ArchetypeProcessDesign:       0.20,
	},
	assessment.CategoryGeneral: {
		assessment.ArchetypeCrisisResponse:      0.15,
		assessment.ArchetypeStakeholderConflict: 0.20,
		assessment.ArchetypeCommunicationDraft:  0.20,
		assessment.ArchetypePrioritization:      0.15,
		assessment.ArchetypeAnalysisCase:        0.15,
		assessment.ArchetypeProcessDesign:       0.15,
	},
}

// Minutes returns the typical duration of one question of the archetype.
func Minutes(a assessment.Archetype) int {
	if m, ok := archetypeMinutes[a]; ok {
		return m
	}
	return defaultArchetypeMinutes
}

// PlanMix allocates questionCount questions across archetypes for the given
// role category. Returned counts are positive and sum to exactly
// questionCount. Overrides replace the base weight of individual archetypes;
// negative override weights are ignored.
func PlanMix(category assessment.RoleCategory, questionCount int, overrides map[assessment.Archetype]float64) map[assessment.Archetype]int {
	counts := make(map[assessment.Archetype]int)
	if questionCount <= 0 {
		return counts
	}

	base, ok := baseWeights[category]
	if !ok {
		base = baseWeights[assessment.CategoryGeneral]
	}

	weights := make(map[assessment.Archetype]float64, len(base))
	for archetype, weight := range base {
		weights[archetype] = weight
	}
	for archetype, weight := range overrides {
		if weight < 0 {
			continue
		}
		weights[archetype] = weight
	}

	var weightSum float64
	for _, weight := range weights {
		weightSum += weight
	}
	if weightSum <= 0 {
		// Overrides zeroed everything out; fall back to the base weights.
		weights = base
		weightSum = 0
		for _, weight := range weights {
			weightSum += weight
		}
	}

	scale := float64(questionCount) / weightSum

	rounded := 0
	for _, archetype := range sortedArchetypes(weights) {
		count := int(math.Round(weights[archetype] * scale))
		if count <= 0 {
			continue
		}
		counts[archetype] = count
		rounded += count
	}

	if rounded < questionCount {
		counts[heaviest(weights)] += questionCount - rounded
		rounded = questionCount
	}

	for rounded > questionCount {
		archetype := lightest(counts)
		counts[archetype]--
		if counts[archetype] == 0 {
			delete(counts, archetype)
		}
		rounded--
	}

	return counts
}

// EstimateMinutes returns the buffered total duration for a planned mix.
func EstimateMinutes(mix map[assessment.Archetype]int) int {
	total := 0
	for archetype, count := range mix {
		total += Minutes(archetype) * count
	}
	return int(math.Round(float64(total) * bufferFactor))
}

// sortedArchetypes returns map keys in a fixed order so planning is
// deterministic across runs.
func sortedArchetypes(weights map[assessment.Archetype]float64) []assessment.Archetype {
	keys := make([]assessment.Archetype, 0, len(weights))
	for archetype := range weights {
		keys = append(keys, archetype)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func heaviest(weights map[assessment.Archetype]float64) assessment.Archetype {
	var best assessment.Archetype
	bestWeight := math.Inf(-1)
	for _, archetype := range sortedArchetypes(weights) {
		if weights[archetype] > bestWeight {
			best = archetype
			bestWeight = weights[archetype]
		}
	}
	return best
}

func lightest(counts map[assessment.Archetype]int) assessment.Archetype {
	keys := make([]assessment.Archetype, 0, len(counts))
	for archetype := range counts {
		keys = append(keys, archetype)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var best assessment.Archetype
	bestCount := math.MaxInt
	for _, archetype := range keys {
		if counts[archetype] < bestCount {
			best = archetype
			bestCount = counts[archetype]
		}
	}
	return best
}
