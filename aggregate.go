package main

import "sort"

// CalculateAggregateRankings computes the consensus ordering across all
// evaluators. The label at position i of a parsed ranking contributes rank
// i+1 to that label's model. Models nobody ranked are omitted; evaluators
// that failed or produced unparsable text simply contribute no votes.
//
// Ordering is deterministic: ascending average rank, ties broken by higher
// vote count, then by council display order.
func CalculateAggregateRankings(stage2Results []Stage2Ranking, labelToModel map[string]string, councilOrder []string) []AggregateRanking {
	// Track contributed positions for each model
	modelPositions := make(map[string][]int)

	for _, ranking := range stage2Results {
		for position, label := range ranking.ParsedRanking {
			if modelName, ok := labelToModel[label]; ok {
				modelPositions[modelName] = append(modelPositions[modelName], position+1) // position+1 because 0-indexed
			}
		}
	}

	// Council position for the deterministic tiebreak
	councilIndex := make(map[string]int, len(councilOrder))
	for i, model := range councilOrder {
		councilIndex[model] = i
	}

	// Calculate average position for each model, walking the council order
	// so input order never influences the result
	aggregate := []AggregateRanking{}
	for _, model := range councilOrder {
		positions := modelPositions[model]
		if len(positions) == 0 {
			continue
		}

		sum := 0
		for _, pos := range positions {
			sum += pos
		}

		aggregate = append(aggregate, AggregateRanking{
			Model:         model,
			AverageRank:   float64(sum) / float64(len(positions)),
			RankingsCount: len(positions),
		})
	}

	// Sort by average rank (lower is better); more votes win ties, then
	// council order keeps the result stable
	sort.SliceStable(aggregate, func(i, j int) bool {
		if aggregate[i].AverageRank != aggregate[j].AverageRank {
			return aggregate[i].AverageRank < aggregate[j].AverageRank
		}
		if aggregate[i].RankingsCount != aggregate[j].RankingsCount {
			return aggregate[i].RankingsCount > aggregate[j].RankingsCount
		}
		return councilIndex[aggregate[i].Model] < councilIndex[aggregate[j].Model]
	})

	return aggregate
}
