package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"

	"github.com/rikyru/Test-spese/internal/rules"
)

// rulesShowCmd dumps the active rule document.
type rulesShowCmd struct{}

func (*rulesShowCmd) Name() string     { return "rules-show" }
func (*rulesShowCmd) Synopsis() string { return "print the active rule document" }
func (*rulesShowCmd) Usage() string    { return "spese rules-show\n" }
func (*rulesShowCmd) SetFlags(*flag.FlagSet) {}

func (c *rulesShowCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	doc, err := app.Rules.Load()
	if err != nil {
		return fail(err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fail(err)
	}
	fmt.Print(string(data))
	return subcommands.ExitSuccess
}

// ruleAddCategoryCmd adds or replaces a category rule.
type ruleAddCategoryCmd struct {
	name      string
	match     string
	necessity string
}

func (*ruleAddCategoryCmd) Name() string     { return "rule-add-category" }
func (*ruleAddCategoryCmd) Synopsis() string { return "add or replace a category rule" }
func (*ruleAddCategoryCmd) Usage() string {
	return `spese rule-add-category -name <category> -match "pat1,pat2" [-necessity Need|Want]

  Rules run in file order and a later match overwrites an earlier one;
  list the most specific rules last.
`
}
func (c *ruleAddCategoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "category to assign")
	f.StringVar(&c.match, "match", "", "comma-separated description patterns")
	f.StringVar(&c.necessity, "necessity", "", "Need or Want")
}

func (c *ruleAddCategoryCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if c.name == "" || c.match == "" {
		return subcommands.ExitUsageError
	}
	return editRules(app, func(doc *rules.Document) {
		doc.SetCategoryRule(rules.CategoryRule{
			Name:      c.name,
			Match:     splitPatterns(c.match),
			Necessity: c.necessity,
		})
	})
}

// ruleAddTagCmd adds or replaces a tag rule.
type ruleAddTagCmd struct {
	tag   string
	match string
}

func (*ruleAddTagCmd) Name() string     { return "rule-add-tag" }
func (*ruleAddTagCmd) Synopsis() string { return "add or replace a tag rule" }
func (*ruleAddTagCmd) Usage() string {
	return "spese rule-add-tag -tag <tag> -match \"pat1,pat2\"\n"
}
func (c *ruleAddTagCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tag, "tag", "", "tag to add on match")
	f.StringVar(&c.match, "match", "", "comma-separated description patterns")
}

func (c *ruleAddTagCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if c.tag == "" || c.match == "" {
		return subcommands.ExitUsageError
	}
	return editRules(app, func(doc *rules.Document) {
		doc.SetTagRule(rules.TagRule{Tag: c.tag, Match: splitPatterns(c.match)})
	})
}

// ruleAddSplitCmd adds or replaces a split rule.
type ruleAddSplitCmd struct {
	ruleType string
	match    string
	myShare  int
}

func (*ruleAddSplitCmd) Name() string     { return "rule-add-split" }
func (*ruleAddSplitCmd) Synopsis() string { return "add or replace a split rule" }
func (*ruleAddSplitCmd) Usage() string {
	return "spese rule-add-split -type category|tag -match <value> -my-share <0-100>\n"
}
func (c *ruleAddSplitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ruleType, "type", "category", "category or tag")
	f.StringVar(&c.match, "match", "", "category name or tag to match")
	f.IntVar(&c.myShare, "my-share", 50, "percentage kept by the ledger owner")
}

func (c *ruleAddSplitCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if c.match == "" || c.myShare < 0 || c.myShare > 100 {
		return subcommands.ExitUsageError
	}
	return editRules(app, func(doc *rules.Document) {
		doc.SetSplitRule(rules.SplitRule{Type: c.ruleType, Match: c.match, MyShare: c.myShare})
	})
}

// ruleRemoveCmd removes a rule of any kind.
type ruleRemoveCmd struct {
	kind string
}

func (*ruleRemoveCmd) Name() string     { return "rule-remove" }
func (*ruleRemoveCmd) Synopsis() string { return "remove a category, tag or split rule" }
func (*ruleRemoveCmd) Usage() string {
	return `spese rule-remove -kind category|tag|split <match>

  For split rules pass "<type>:<match>", e.g. "tag:casa".
`
}
func (c *ruleRemoveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "category", "category, tag or split")
}

func (c *ruleRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	removed := false
	status := editRules(app, func(doc *rules.Document) {
		switch c.kind {
		case "tag":
			removed = doc.RemoveTagRule(f.Arg(0))
		case "split":
			ruleType, match, ok := strings.Cut(f.Arg(0), ":")
			if ok {
				removed = doc.RemoveSplitRule(ruleType, match)
			}
		default:
			removed = doc.RemoveCategoryRule(f.Arg(0))
		}
	})
	if status != subcommands.ExitSuccess {
		return status
	}
	if !removed {
		fmt.Println("No matching rule.")
	}
	return subcommands.ExitSuccess
}

// walletDisplayCmd stores presentation settings for an account.
type walletDisplayCmd struct {
	name string
	icon string
}

func (*walletDisplayCmd) Name() string     { return "wallet-display" }
func (*walletDisplayCmd) Synopsis() string { return "set display name and icon for an account" }
func (*walletDisplayCmd) Usage() string {
	return "spese wallet-display <account> [-name label] [-icon glyph]\n"
}
func (c *walletDisplayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display label")
	f.StringVar(&c.icon, "icon", "", "display icon")
}

func (c *walletDisplayCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	return editRules(app, func(doc *rules.Document) {
		doc.SetWalletDisplay(f.Arg(0), rules.WalletDisplay{Name: c.name, Icon: c.icon})
	})
}

func editRules(app *App, mutate func(*rules.Document)) subcommands.ExitStatus {
	doc, err := app.Rules.Load()
	if err != nil {
		return fail(err)
	}
	mutate(&doc)
	if err := app.Rules.Save(doc); err != nil {
		return fail(err)
	}
	fmt.Println("Rules saved.")
	return subcommands.ExitSuccess
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
