package cli

import (
	"context"
	"encoding/json"
	"flag"
	"net/url"

	"github.com/google/subcommands"

	"stockflow/internal/core"
	"stockflow/internal/views"
)

type listCmd struct {
	query  url.Values
	asJSON bool
	plain  bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list records with optional filters" }
func (*listCmd) Usage() string {
	return `stockflowctl list [-type item|expense] [-status in-stock|sold] [-category <c>] [-q <text>] [-sort <field>] [-order asc|desc] [-json] [-plain]

  Lists records, newest first unless another sort is given.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	c.query = url.Values{}
	for _, name := range []string{"type", "status", "category", "q", "sort", "order"} {
		f.Func(name, "filter or sort by "+name, func(v string) error {
			c.query.Set(name, v)
			return nil
		})
	}
	f.BoolVar(&c.asJSON, "json", false, "Print records as JSON.")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) error {
		records, err := s.svc.List(ctx)
		if err != nil {
			return err
		}
		f, order := views.ParseQuery(c.query)
		records = views.Apply(records, f, order)
		if c.asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		printMarkdown(views.RecordsMarkdown(records, s.money), c.plain)
		return nil
	})
}

type summaryCmd struct {
	plain bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show stock, sales and profit totals" }
func (*summaryCmd) Usage() string {
	return `stockflowctl summary [-plain]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) error {
		sum, err := s.svc.Summary(ctx)
		if err != nil {
			return err
		}
		printMarkdown(views.SummaryMarkdown(sum, s.money), c.plain)
		return nil
	})
}

type cashflowCmd struct {
	granularity string
	plain       bool
}

func (*cashflowCmd) Name() string     { return "cashflow" }
func (*cashflowCmd) Synopsis() string { return "show income and expense per month or year" }
func (*cashflowCmd) Usage() string {
	return `stockflowctl cashflow [-g month|year] [-plain]
`
}

func (c *cashflowCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.granularity, "g", "month", "Bucket size (month, year).")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
}

func (c *cashflowCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g, err := core.ParseGranularity(c.granularity)
	if err != nil {
		return usageError("%v", err)
	}
	return withSession(ctx, func(s *session) error {
		buckets, err := s.svc.Cashflow(ctx, g)
		if err != nil {
			return err
		}
		printMarkdown(views.CashflowMarkdown(buckets, g, s.money), c.plain)
		return nil
	})
}

type categoriesCmd struct {
	period string
	plain  bool
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "show income and expense per category" }
func (*categoriesCmd) Usage() string {
	return `stockflowctl categories [-p YYYY|YYYY-MM] [-plain]

  Without -p the breakdown covers all time.
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "", "Period (YYYY or YYYY-MM).")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := core.ParsePeriod(c.period); err != nil {
		return usageError("%v", err)
	}
	return withSession(ctx, func(s *session) error {
		buckets, err := s.svc.Categories(ctx, c.period)
		if err != nil {
			return err
		}
		printMarkdown(views.CategoryMarkdown(buckets, c.period, s.money), c.plain)
		return nil
	})
}
