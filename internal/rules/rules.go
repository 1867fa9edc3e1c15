// Package rules holds the user-editable rule document: categorization
// rules, tag rules, wallet display settings and the expense-split
// configuration. The document is loaded once at startup and rewritten
// wholesale on every edit.
package rules

import (
	"regexp"
	"strings"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/normalize"
)

// CategoryRule assigns a category (and optionally a necessity) to rows
// whose description matches any of its patterns.
type CategoryRule struct {
	Name      string   `yaml:"name"`
	Match     []string `yaml:"match"`
	Necessity string   `yaml:"necessity,omitempty"`
}

// TagRule adds a tag to matching rows. Tags are only ever added, never
// removed.
type TagRule struct {
	Tag   string   `yaml:"tag"`
	Match []string `yaml:"match"`
}

// SplitRule defines the owner's share for a category or tag.
type SplitRule struct {
	Type    string `yaml:"type"` // "category" or "tag"
	Match   string `yaml:"match"`
	MyShare int    `yaml:"my_share"` // 0-100 percent kept by the ledger owner
}

// SplitConfig configures the bill-splitting report.
type SplitConfig struct {
	PartnerName     string      `yaml:"partner_name"`
	DefaultSharePct int         `yaml:"default_share_pct"`
	LoanTags        []string    `yaml:"loan_tags"`
	Rules           []SplitRule `yaml:"rules"`
}

// WalletDisplay carries per-account presentation settings.
type WalletDisplay struct {
	Name string `yaml:"name,omitempty"`
	Icon string `yaml:"icon,omitempty"`
}

// currentVersion marks the document schema; older files load as-is.
const currentVersion = 1

// Document is the whole persisted ruleset.
type Document struct {
	Version    int                      `yaml:"version"`
	Categories []CategoryRule           `yaml:"categories"`
	Tags       []TagRule                `yaml:"tags"`
	Wallets    map[string]WalletDisplay `yaml:"wallets,omitempty"`
	Split      SplitConfig              `yaml:"split_config"`
}

// autoTagKeywords is the fixed built-in keyword list applied on ingest,
// independent of user rules.
var autoTagKeywords = []string{"luce", "gas", "internet", "taxi", "uber", "amazon"}

// applyDefaults fills split-config fallbacks on freshly loaded documents.
func (d *Document) applyDefaults() {
	if d.Version == 0 {
		d.Version = currentVersion
	}
	if d.Split.PartnerName == "" {
		d.Split.PartnerName = "Partner"
	}
	if d.Split.DefaultSharePct == 0 {
		d.Split.DefaultSharePct = 50
	}
	if d.Split.LoanTags == nil {
		d.Split.LoanTags = []string{"prestito", "loan", "anticipo"}
	}
}

// ApplyCategoryRules runs every category rule as an independent pass over
// the full row set, in list order. A later-matching rule therefore
// overwrites an earlier one: last match wins. This layering is depended
// upon by existing rulesets; do not change it to first-match.
func (d Document) ApplyCategoryRules(rows []repository.Transaction) {
	for _, rule := range d.Categories {
		re := compileAlternation(rule.Match)
		if re == nil {
			continue
		}
		for i := range rows {
			if !re.MatchString(rows[i].Description) {
				continue
			}
			rows[i].Category = rule.Name
			if rule.Necessity != "" {
				rows[i].Necessity = rule.Necessity
			}
		}
	}
}

// ApplyTagRules adds each rule's tag to matching rows. Additive union,
// never overwrites.
func (d Document) ApplyTagRules(rows []repository.Transaction) {
	for _, rule := range d.Tags {
		re := compileAlternation(rule.Match)
		if re == nil {
			continue
		}
		for i := range rows {
			if re.MatchString(rows[i].Description) {
				rows[i].Tags = normalize.Tags(append(rows[i].Tags, rule.Tag))
			}
		}
	}
}

// AutoTag adds built-in keyword tags when the keyword appears in the
// description. Additive only.
func AutoTag(rows []repository.Transaction) {
	for i := range rows {
		desc := strings.ToLower(rows[i].Description)
		for _, kw := range autoTagKeywords {
			if strings.Contains(desc, kw) {
				rows[i].Tags = normalize.Tags(append(rows[i].Tags, kw))
			}
		}
	}
}

// compileAlternation joins the patterns into one case-insensitive
// alternation. A pattern set that fails to compile is skipped for that
// rule: malformed config must not abort ingestion.
func compileAlternation(patterns []string) *regexp.Regexp {
	var parts []string
	for _, p := range patterns {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	re, err := regexp.Compile("(?i)(?:" + strings.Join(parts, "|") + ")")
	if err != nil {
		return nil
	}
	return re
}
