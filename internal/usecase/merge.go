package usecase

import (
	"fmt"
	"sort"

	"MissionReady/internal/domain"
)

// MergeOutcome is the result of joining one batch's conops and draws.
// Warnings report ambiguous pairings (more than one candidate per side);
// they never block the merge.
type MergeOutcome struct {
	Records  []domain.MergedRecord
	Warnings []string
}

// MergeRecords groups parsed records by directory id and produces exactly one
// MergedRecord per distinct id seen in either input, ordered by id. When a
// side has multiple candidates the latest-processed one wins. A record never
// has both sides nil. Merging identical inputs twice yields identical output.
func MergeRecords(conops []domain.ParsedConop, draws []domain.ParsedDraw) MergeOutcome {
	var outcome MergeOutcome

	conopByID := make(map[int]*domain.ParsedConop, len(conops))
	for i := range conops {
		id := conops[i].SourceDirectoryID
		if prev, ok := conopByID[id]; ok {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf(
				"directory %d: multiple conops, replacing %s with %s",
				id, prev.SourceFileName, conops[i].SourceFileName))
		}
		conopByID[id] = &conops[i]
	}

	drawByID := make(map[int]*domain.ParsedDraw, len(draws))
	for i := range draws {
		id := draws[i].SourceDirectoryID
		if prev, ok := drawByID[id]; ok {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf(
				"directory %d: multiple draws, replacing %s with %s",
				id, prev.SourceFileName, draws[i].SourceFileName))
		}
		drawByID[id] = &draws[i]
	}

	seen := map[int]struct{}{}
	var ids []int
	for id := range conopByID {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range drawByID {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		record := domain.MergedRecord{
			SourceDirectoryID: id,
			Conop:             conopByID[id],
			Draw:              drawByID[id],
		}
		if record.Conop != nil {
			record.SourceDirectoryName = record.Conop.SourceDirectoryName
		} else if record.Draw != nil {
			record.SourceDirectoryName = record.Draw.SourceDirectoryName
		}
		outcome.Records = append(outcome.Records, record)
	}

	return outcome
}
