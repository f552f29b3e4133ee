// Package classify maps raw relationship labels to semantic categories
// used for filtering and display.
package classify

import (
	"strings"

	"github.com/linkloom/loom/internal/core/model"
)

// labelsByCategory is a closed, hand-curated enumeration of common
// relationship phrases. Unmatched labels fall through to "other";
// there is no fuzzy matching.
var labelsByCategory = map[model.EdgeCategory][]string{
	model.CategoryFamily: {
		"father", "mother", "child", "spouse",
		"sibling", "relative", "partner", "stepparent",
	},
	model.CategoryEducation: {
		"educated at", "student of", "student",
		"doctoral advisor", "academic degree",
	},
	model.CategoryCareer: {
		"employer", "occupation", "position held",
		"field of work", "member of sports team", "notable work",
	},
	model.CategoryGeographic: {
		"place of birth", "place of death", "country of citizenship",
		"residence", "country", "capital",
		"located in", "headquarters location", "location",
	},
	model.CategoryMembership: {
		"member of", "member of political party", "part of",
		"affiliation", "religion or worldview",
	},
}

var categoryTable = invertLabelTable()

func invertLabelTable() map[string]model.EdgeCategory {
	table := make(map[string]model.EdgeCategory)
	for cat, labels := range labelsByCategory {
		for _, label := range labels {
			table[label] = cat
		}
	}
	return table
}

// Classify returns the semantic category for a relationship label.
func Classify(label string) model.EdgeCategory {
	if cat, ok := categoryTable[strings.ToLower(strings.TrimSpace(label))]; ok {
		return cat
	}
	return model.CategoryOther
}
