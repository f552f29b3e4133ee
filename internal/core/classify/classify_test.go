package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkloom/loom/internal/core/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		label string
		want  model.EdgeCategory
	}{
		{"father", model.CategoryFamily},
		{"Spouse", model.CategoryFamily},
		{"  educated at  ", model.CategoryEducation},
		{"EMPLOYER", model.CategoryCareer},
		{"place of birth", model.CategoryGeographic},
		{"member of", model.CategoryMembership},
		{"discography", model.CategoryOther},
		{"", model.CategoryOther},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.label), "label %q", tc.label)
	}
}
