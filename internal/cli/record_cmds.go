package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"stockflow/internal/core"
)

// recordFlags are shared by add-item and add-expense.
type recordFlags struct {
	name       string
	category   string
	date       string
	misc       string
	consumable string
	memo       string
}

func (r *recordFlags) set(f *flag.FlagSet, dateUsage string) {
	f.StringVar(&r.name, "name", "", "Name (required).")
	f.StringVar(&r.category, "category", string(core.CategoryOther), "Category (apparel, electronics, hobby, other).")
	f.StringVar(&r.date, "date", "", dateUsage)
	f.StringVar(&r.misc, "misc", "", "Misc expense.")
	f.StringVar(&r.consumable, "consumable", "", "Consumable expense.")
	f.StringVar(&r.memo, "memo", "", "Free-form note.")
}

func (r *recordFlags) dateOrToday() string {
	if r.date == "" {
		return core.Today()
	}
	return r.date
}

type addItemCmd struct {
	recordFlags
	price string
}

func (*addItemCmd) Name() string     { return "add-item" }
func (*addItemCmd) Synopsis() string { return "record a purchased item" }
func (*addItemCmd) Usage() string {
	return `stockflowctl add-item -name <name> -price <amount> [-category <c>] [-date YYYY-MM-DD] [-misc <amount>] [-consumable <amount>] [-memo <text>]
`
}

func (c *addItemCmd) SetFlags(f *flag.FlagSet) {
	c.recordFlags.set(f, "Purchase date (default today).")
	f.StringVar(&c.price, "price", "", "Purchase price (required).")
}

func (c *addItemCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	price, err := core.ParseAmount(c.price)
	if err != nil {
		return usageError("-price: %v", err)
	}
	misc, err := core.ParseOptionalAmount(c.misc)
	if err != nil {
		return usageError("-misc: %v", err)
	}
	consumable, err := core.ParseOptionalAmount(c.consumable)
	if err != nil {
		return usageError("-consumable: %v", err)
	}
	in := core.ItemInput{
		Name:              c.name,
		Category:          core.ParseCategory(c.category),
		PurchasePrice:     price,
		PurchaseDate:      c.dateOrToday(),
		MiscExpense:       misc,
		ConsumableExpense: consumable,
		Memo:              c.memo,
	}
	return withSession(ctx, func(s *session) error {
		rec, err := s.svc.CreateItem(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added item %s\n", rec.ID)
		return nil
	})
}

type addExpenseCmd struct {
	recordFlags
}

func (*addExpenseCmd) Name() string     { return "add-expense" }
func (*addExpenseCmd) Synopsis() string { return "record a standalone expense" }
func (*addExpenseCmd) Usage() string {
	return `stockflowctl add-expense -name <name> (-misc <amount> | -consumable <amount>) [-category <c>] [-date YYYY-MM-DD] [-memo <text>]
`
}

func (c *addExpenseCmd) SetFlags(f *flag.FlagSet) {
	c.recordFlags.set(f, "Expense date (default today).")
}

func (c *addExpenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	misc, err := core.ParseOptionalAmount(c.misc)
	if err != nil {
		return usageError("-misc: %v", err)
	}
	consumable, err := core.ParseOptionalAmount(c.consumable)
	if err != nil {
		return usageError("-consumable: %v", err)
	}
	in := core.ExpenseInput{
		Name:              c.name,
		Category:          core.ParseCategory(c.category),
		Date:              c.dateOrToday(),
		MiscExpense:       misc,
		ConsumableExpense: consumable,
		Memo:              c.memo,
	}
	return withSession(ctx, func(s *session) error {
		rec, err := s.svc.CreateExpense(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added expense %s\n", rec.ID)
		return nil
	})
}

type sellCmd struct {
	price string
	date  string
	undo  bool
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "mark an item as sold, or back in stock with -undo" }
func (*sellCmd) Usage() string {
	return `stockflowctl sell -price <amount> [-date YYYY-MM-DD] <id>
stockflowctl sell -undo <id>
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "Selling price.")
	f.StringVar(&c.date, "date", "", "Sold date (default today).")
	f.BoolVar(&c.undo, "undo", false, "Clear the sale and put the item back in stock.")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("sell takes exactly one record id")
	}
	id := f.Arg(0)

	if c.undo {
		return withSession(ctx, func(s *session) error {
			if _, err := s.svc.MarkUnsold(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Item %s is back in stock\n", id)
			return nil
		})
	}

	price, err := core.ParseAmount(c.price)
	if err != nil {
		return usageError("-price: %v", err)
	}
	date := c.date
	if date == "" {
		date = core.Today()
	}
	return withSession(ctx, func(s *session) error {
		rec, err := s.svc.MarkSold(ctx, id, price, date)
		if err != nil {
			return err
		}
		profit, _ := core.Profit(rec)
		fmt.Fprintf(stdout, "Sold %s for %s (profit %s)\n", id, s.money.Format(price), s.money.Signed(profit))
		return nil
	})
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a record" }
func (*deleteCmd) Usage() string {
	return `stockflowctl delete <id>
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("delete takes exactly one record id")
	}
	id := f.Arg(0)
	return withSession(ctx, func(s *session) error {
		if err := s.svc.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Deleted %s\n", id)
		return nil
	})
}
