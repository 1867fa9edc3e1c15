package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetCategoryRuleReplacesByName(t *testing.T) {
	t.Parallel()

	var doc Document
	doc.SetCategoryRule(CategoryRule{Name: "Groceries", Match: []string{"coop"}})
	doc.SetCategoryRule(CategoryRule{Name: "Bills", Match: []string{"enel"}})
	doc.SetCategoryRule(CategoryRule{Name: "Groceries", Match: []string{"coop", "conad"}})

	require.Len(t, doc.Categories, 2)
	require.Equal(t, []string{"coop", "conad"}, doc.Categories[0].Match)

	require.True(t, doc.RemoveCategoryRule("Bills"))
	require.False(t, doc.RemoveCategoryRule("Bills"))
	require.Len(t, doc.Categories, 1)
}

func TestSetTagRuleNormalizesTag(t *testing.T) {
	t.Parallel()

	var doc Document
	doc.SetTagRule(TagRule{Tag: "#Casa", Match: []string{"affitto"}})
	require.Equal(t, "casa", doc.Tags[0].Tag)

	// Same tag under a different spelling replaces, not appends.
	doc.SetTagRule(TagRule{Tag: "CASA", Match: []string{"mutuo"}})
	require.Len(t, doc.Tags, 1)
	require.Equal(t, []string{"mutuo"}, doc.Tags[0].Match)

	require.True(t, doc.RemoveTagRule("casa"))
	require.Empty(t, doc.Tags)
}

func TestSetSplitRuleKeyedByTypeAndMatch(t *testing.T) {
	t.Parallel()

	var doc Document
	doc.SetSplitRule(SplitRule{Type: "category", Match: "Groceries", MyShare: 50})
	doc.SetSplitRule(SplitRule{Type: "tag", Match: "Groceries", MyShare: 30})
	doc.SetSplitRule(SplitRule{Type: "category", Match: "Groceries", MyShare: 70})

	require.Len(t, doc.Split.Rules, 2)
	require.Equal(t, 70, doc.Split.Rules[0].MyShare)

	require.True(t, doc.RemoveSplitRule("tag", "Groceries"))
	require.Len(t, doc.Split.Rules, 1)
}
