package rules

import "github.com/rikyru/Test-spese/internal/normalize"

// Edit helpers for the whole-document-rewrite flow: the caller loads the
// document, mutates it through these, and saves it back.

// SetCategoryRule adds the rule, or replaces the patterns of an existing
// rule with the same category name.
func (d *Document) SetCategoryRule(rule CategoryRule) {
	for i := range d.Categories {
		if d.Categories[i].Name == rule.Name {
			d.Categories[i] = rule
			return
		}
	}
	d.Categories = append(d.Categories, rule)
}

// RemoveCategoryRule deletes the rule by category name.
func (d *Document) RemoveCategoryRule(name string) bool {
	for i := range d.Categories {
		if d.Categories[i].Name == name {
			d.Categories = append(d.Categories[:i], d.Categories[i+1:]...)
			return true
		}
	}
	return false
}

// SetTagRule adds the rule, or replaces the one carrying the same tag.
// Tag names are normalized on the way in.
func (d *Document) SetTagRule(rule TagRule) {
	rule.Tag = normalize.Token(rule.Tag)
	for i := range d.Tags {
		if d.Tags[i].Tag == rule.Tag {
			d.Tags[i] = rule
			return
		}
	}
	d.Tags = append(d.Tags, rule)
}

// RemoveTagRule deletes the rule by tag name.
func (d *Document) RemoveTagRule(tag string) bool {
	tag = normalize.Token(tag)
	for i := range d.Tags {
		if d.Tags[i].Tag == tag {
			d.Tags = append(d.Tags[:i], d.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// SetSplitRule adds the rule, or replaces the one with the same type and
// match value.
func (d *Document) SetSplitRule(rule SplitRule) {
	for i := range d.Split.Rules {
		if d.Split.Rules[i].Type == rule.Type && d.Split.Rules[i].Match == rule.Match {
			d.Split.Rules[i] = rule
			return
		}
	}
	d.Split.Rules = append(d.Split.Rules, rule)
}

// RemoveSplitRule deletes the rule by type and match value.
func (d *Document) RemoveSplitRule(ruleType, match string) bool {
	for i := range d.Split.Rules {
		if d.Split.Rules[i].Type == ruleType && d.Split.Rules[i].Match == match {
			d.Split.Rules = append(d.Split.Rules[:i], d.Split.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// SetWalletDisplay stores display settings for an account.
func (d *Document) SetWalletDisplay(account string, display WalletDisplay) {
	if d.Wallets == nil {
		d.Wallets = make(map[string]WalletDisplay)
	}
	d.Wallets[account] = display
}
