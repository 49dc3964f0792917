package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/coordinator"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/output"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/pagination"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/SanteonNL/filmcatalog/models/catalog"
)

func (sh *Shell) newCommands() []*command {
	return []*command{
		{usage: "fields", short: "List the fields you can filter on", run: sh.cmdFields},
		{usage: "filters", short: "List the filters being edited", run: sh.cmdFilters},
		{usage: "add <field> [gte|lte] [value]", short: "Add a filter", run: sh.cmdAdd},
		{usage: "set <n> [--field f] [--op gte|lte] [value]", short: "Change filter n", run: sh.cmdSet},
		{usage: "rm <n>", short: "Remove filter n", run: sh.cmdRemove},
		{usage: "sort <field> [asc|desc]", short: "Change the sort order", run: sh.cmdSort},
		{usage: "revert", short: "Discard unapplied filter and sort changes", run: sh.cmdRevert},
		{usage: "apply", short: "Apply filters and sort, back to page 1", run: sh.cmdApply},
		{usage: "refresh", short: "Fetch the current page again", run: sh.cmdRefresh},
		{usage: "next", short: "Next page", run: sh.cmdNext},
		{usage: "prev", short: "Previous page", run: sh.cmdPrev},
		{usage: "page <text>", short: "Type into the page box and press enter", run: sh.cmdPage},
		{usage: "goto <n>", short: "Go to page n, clamped to the available pages", run: sh.cmdGoto},
		{usage: "open <n>", short: "Expand or collapse film n of the list", run: sh.cmdOpen},
		{usage: "show <n|film_id>", short: "Show everything about one film", run: sh.cmdShow},
		{usage: "recommend [--num n] [--ok user|all] [--max-ok n] <user>...", short: "Recommend films for a group", run: sh.cmdRecommend},
		{usage: "superlatives [n]", short: "Show the group's superlatives, or fold category n", run: sh.cmdSuperlatives},
		{usage: "export [name]", short: "Save the current page as JSON", run: sh.cmdExport},
		{usage: "status", short: "Show the page status and query", run: sh.cmdStatus},
		{usage: "help", short: "Show this help", run: sh.cmdHelp},
		{usage: "quit", short: "Exit", run: sh.cmdQuit},
	}
}

// fetch waits for the session to settle and renders the result. Fetch
// failures are part of the rendered status and are not returned.
func (sh *Shell) fetch(ctx context.Context, req *coordinator.Request) error {
	if req != nil {
		if err := sh.session.Wait(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	sh.render()
	return nil
}

func (sh *Shell) render() {
	snap := sh.session.Snapshot()
	res := snap.Resource.Name
	if snap.Pagination.Phase == pagination.Loaded {
		first := (snap.Pagination.CurrentPage-1)*sh.session.PageSize() + 1
		if sh.isFilms() {
			films, err := snap.Page.Films()
			if err != nil {
				sh.printf("error: decoding %s: %v\n", res, err)
				return
			}
			output.Films(sh.out, films, first, sh.expanded)
		} else {
			users, err := snap.Page.Users()
			if err != nil {
				sh.printf("error: decoding %s: %v\n", res, err)
				return
			}
			output.Users(sh.out, users)
		}
		sh.println()
	}
	sh.println(output.Status(res, snap.Pagination))
}

func (sh *Shell) cmdFields(_ context.Context, _ []string) error {
	output.Fields(sh.out, sh.session.Catalog(), sh.vocab)
	return nil
}

func (sh *Shell) cmdFilters(_ context.Context, _ []string) error {
	snap := sh.session.Snapshot()
	output.Filters(sh.out, snap.PendingFilters, snap.ActiveFilters)
	sh.printf("  sort: %s", snap.PendingSort)
	if snap.PendingSort != snap.ActiveSort {
		sh.printf(" (applied: %s)", snap.ActiveSort)
	}
	sh.println()
	return nil
}

func (sh *Shell) cmdAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <field> [gte|lte] [value]")
	}
	name := args[0]
	d, ok := sh.session.Catalog().Lookup(name)
	if !ok {
		return &field.UnknownFieldError{Field: name}
	}

	var patch filter.Patch
	rest := args[1:]
	if d.Kind == field.Numeric && len(rest) > 0 {
		if op, err := types.ParseOperator(rest[0]); err == nil {
			patch.Operator = &op
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		value := strings.Join(rest, " ")
		patch.Value = &value
	}

	if err := sh.session.AddRule(name); err != nil {
		return err
	}
	i := sh.session.Snapshot().PendingFilters.Len() - 1
	if patch.Operator != nil || patch.Value != nil {
		if err := sh.session.UpdateRule(i, patch); err != nil {
			return err
		}
	}
	return sh.cmdFilters(ctx, nil)
}

func (sh *Shell) cmdSet(ctx context.Context, args []string) error {
	fs := newFlags("set")
	fieldName := fs.StringP("field", "f", "", "field to filter on")
	opName := fs.StringP("op", "o", "", "gte or lte")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("usage: set <n> [--field f] [--op gte|lte] [value]")
	}
	i, err := parseIndex(rest[0])
	if err != nil {
		return err
	}

	var patch filter.Patch
	if fs.Changed("field") {
		patch.Field = fieldName
	}
	if fs.Changed("op") {
		op, err := types.ParseOperator(*opName)
		if err != nil {
			return err
		}
		patch.Operator = &op
	}
	if len(rest) > 1 {
		value := strings.Join(rest[1:], " ")
		patch.Value = &value
	}
	if patch.Field == nil && patch.Operator == nil && patch.Value == nil {
		return errors.New("nothing to change")
	}

	if err := sh.session.UpdateRule(i, patch); err != nil {
		return err
	}
	return sh.cmdFilters(ctx, nil)
}

func (sh *Shell) cmdRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rm <n>")
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	if err := sh.session.RemoveRule(i); err != nil {
		return err
	}
	return sh.cmdFilters(ctx, nil)
}

func (sh *Shell) cmdSort(_ context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		var names []string
		for _, f := range sh.session.Catalog().SortFields() {
			names = append(names, f.Field)
		}
		return fmt.Errorf("usage: sort <field> [asc|desc] (fields: %s)", strings.Join(names, ", "))
	}
	want := types.SortSpec{By: args[0], Order: types.Ascending}
	if len(args) == 2 {
		order, err := types.ParseSortOrder(args[1])
		if err != nil {
			return err
		}
		want.Order = order
	}
	if err := sh.session.SetSort(want); err != nil {
		return err
	}
	sh.printf("sort set to %s, run apply to use it\n", want)
	return nil
}

func (sh *Shell) cmdRevert(ctx context.Context, _ []string) error {
	sh.session.Revert()
	return sh.cmdFilters(ctx, nil)
}

func (sh *Shell) cmdApply(ctx context.Context, _ []string) error {
	req := sh.session.Apply(ctx)
	if req == nil {
		sh.println("Nothing changed.")
		return nil
	}
	sh.expanded = output.Expanded{}
	return sh.fetch(ctx, req)
}

func (sh *Shell) cmdRefresh(ctx context.Context, _ []string) error {
	return sh.fetch(ctx, sh.session.Refresh(ctx))
}

func (sh *Shell) cmdNext(ctx context.Context, _ []string) error {
	req := sh.session.Next(ctx)
	if req == nil {
		sh.println("Already on the last page.")
		return nil
	}
	return sh.fetch(ctx, req)
}

func (sh *Shell) cmdPrev(ctx context.Context, _ []string) error {
	req := sh.session.Prev(ctx)
	if req == nil {
		sh.println("Already on the first page.")
		return nil
	}
	return sh.fetch(ctx, req)
}

// cmdPage commits typed page input. Anything that is not a usable page
// number resolves the way the page box does: to page 1, or clamped.
func (sh *Shell) cmdPage(ctx context.Context, args []string) error {
	sh.session.SetPageInput(strings.Join(args, " "))
	return sh.fetch(ctx, sh.session.CommitPageInput(ctx))
}

func (sh *Shell) cmdGoto(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: goto <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid page number %q", args[0])
	}
	req := sh.session.GoToPage(ctx, n)
	if req == nil {
		sh.printf("Already on page %d.\n", sh.session.Snapshot().Pagination.CurrentPage)
		return nil
	}
	return sh.fetch(ctx, req)
}

func (sh *Shell) cmdOpen(_ context.Context, args []string) error {
	f, err := sh.filmAt(args)
	if err != nil {
		return err
	}
	sh.expanded = sh.expanded.Toggle(f.FilmID)
	sh.render()
	return nil
}

func (sh *Shell) cmdShow(ctx context.Context, args []string) error {
	if !sh.isFilms() {
		return errors.New("show is only available when browsing films")
	}
	if len(args) != 1 {
		return errors.New("usage: show <n|film_id>")
	}

	id := args[0]
	if _, err := strconv.Atoi(id); err == nil {
		f, err := sh.filmAt(args)
		if err != nil {
			return err
		}
		id = f.FilmID
	}

	film, err := sh.service.Film(ctx, id)
	if err != nil {
		return err
	}
	output.FilmDetail(sh.out, film)
	return nil
}

// filmAt resolves a list number, as shown next to each film, on the
// current page.
func (sh *Shell) filmAt(args []string) (catalog.Film, error) {
	if !sh.isFilms() {
		return catalog.Film{}, errors.New("only films can be opened")
	}
	if len(args) != 1 {
		return catalog.Film{}, errors.New("usage: open <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return catalog.Film{}, fmt.Errorf("invalid film number %q", args[0])
	}

	snap := sh.session.Snapshot()
	films, err := snap.Page.Films()
	if err != nil {
		return catalog.Film{}, err
	}
	first := (snap.Pagination.CurrentPage-1)*sh.session.PageSize() + 1
	i := n - first
	if i < 0 || i >= len(films) {
		return catalog.Film{}, fmt.Errorf("film %d is not on this page", n)
	}
	return films[i], nil
}

func (sh *Shell) cmdRecommend(ctx context.Context, args []string) error {
	fs := newFlags("recommend")
	num := fs.IntP("num", "n", compiler.DefaultRecommendations, "number of recommendations (max 20)")
	ok := fs.String("ok", "", "a watcher, or all, allowed to have seen the film")
	maxOK := fs.Int("max-ok", 0, "how many watchers may have seen the film")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !sh.isFilms() {
		return errors.New("recommendations are only available when browsing films")
	}
	snap := sh.session.Snapshot()
	q, err := compiler.CompileRecommendations(sh.session.Catalog(), snap.ActiveFilters, compiler.Recommendation{
		Watchers:           fs.Args(),
		NumRecs:            *num,
		OkToHaveWatched:    *ok,
		MaxOkToHaveWatched: *maxOK,
	})
	if err != nil {
		return err
	}

	recs, err := sh.service.Recommendations(ctx, q)
	if err != nil {
		return err
	}
	output.Recommendations(sh.out, recs)
	return nil
}

func (sh *Shell) cmdSuperlatives(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errors.New("usage: superlatives [n]")
	}
	if len(args) == 0 || sh.superlatives == nil {
		sups, err := sh.service.Superlatives(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch superlatives: %w", err)
		}
		sh.superlatives = sups
	}
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(sh.superlatives) {
			return fmt.Errorf("no superlative category %q", args[0])
		}
		sh.folded = sh.folded.Toggle(sh.superlatives[n-1].Category)
	}
	output.Superlatives(sh.out, sh.superlatives, sh.folded)
	return nil
}

func (sh *Shell) cmdExport(_ context.Context, args []string) error {
	if sh.exporter == nil {
		return errors.New("export is not configured")
	}
	snap := sh.session.Snapshot()
	if snap.Pagination.Phase != pagination.Loaded {
		return errors.New("no page loaded")
	}

	prefix := fmt.Sprintf("%s_page%d", snap.Resource.Name, snap.Pagination.CurrentPage)
	if len(args) > 0 {
		prefix = args[0]
	}
	doc := map[string]interface{}{
		"query":                     snap.Query.Encode(),
		snap.Resource.ItemsKey:      snap.Page.Items,
		snap.Resource.TotalItemsKey: snap.Page.TotalItems,
		snap.Resource.TotalPagesKey: snap.Page.TotalPages,
	}
	path, err := sh.exporter.WriteJSON(doc, prefix)
	if err != nil {
		return err
	}
	sh.printf("Saved %s\n", path)
	return nil
}

func (sh *Shell) cmdStatus(_ context.Context, _ []string) error {
	snap := sh.session.Snapshot()
	sh.println(output.Status(snap.Resource.Name, snap.Pagination))
	sh.printf("query: %s?%s\n", snap.Resource.Path, snap.Query.Encode())
	if snap.Dirty() {
		sh.println("(unapplied changes, run apply)")
	}
	return nil
}

func (sh *Shell) cmdHelp(_ context.Context, _ []string) error {
	sh.println("Commands:")
	tw := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	for _, c := range sh.commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.usage, c.short)
	}
	tw.Flush()
	return nil
}

func (sh *Shell) cmdQuit(_ context.Context, _ []string) error {
	return errQuit
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid filter number %q", s)
	}
	return i, nil
}
