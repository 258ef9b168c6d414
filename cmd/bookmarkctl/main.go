package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
	"github.com/MrSnakeDoc/bookmarkd/internal/client"
	"github.com/MrSnakeDoc/bookmarkd/internal/version"
)

const usage = `bookmarkd control.

The server url defaults to $BOOKMARKD_URL, then http://localhost:8080.

Usage:
    bookmarkctl list [--url=<url>] [--query=<q>]
    bookmarkctl add [--url=<url>] <text>...
    bookmarkctl delete [--url=<url>] <id>
    bookmarkctl open [--url=<url>] <id>
    bookmarkctl retry [--url=<url>]
    bookmarkctl import [--url=<url>]
    bookmarkctl watch [--url=<url>]
    bookmarkctl -h | --help
    bookmarkctl --version

Options:
    -h --help        Show this screen.
    --version        Show version.
    --url=<url>      bookmarkd server url.
    --query=<q>      Rank and filter bookmarks by a fuzzy query.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version.String())
	if err != nil {
		fatal(err)
	}

	c, err := client.New(serverURL(opts), nil)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, c, opts, os.Stdout); err != nil {
		fatal(err)
	}
}

func dispatch(ctx context.Context, c *client.Client, opts docopt.Opts, out io.Writer) error {
	if list_, _ := opts.Bool("list"); list_ {
		query, _ := opts.String("--query")
		return list(ctx, c, query, out)
	} else if add_, _ := opts.Bool("add"); add_ {
		words, _ := opts["<text>"].([]string)
		return add(ctx, c, strings.Join(words, " "), out)
	} else if delete_, _ := opts.Bool("delete"); delete_ {
		id, _ := opts.String("<id>")
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "delete of %s queued\n", id)
		return nil
	} else if open_, _ := opts.Bool("open"); open_ {
		id, _ := opts.String("<id>")
		return open(ctx, c, id, out)
	} else if retry_, _ := opts.Bool("retry"); retry_ {
		if err := c.Retry(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "retry requested")
		return nil
	} else if import_, _ := opts.Bool("import"); import_ {
		if err := c.Import(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "import triggered")
		return nil
	} else if watch_, _ := opts.Bool("watch"); watch_ {
		return watch(ctx, c, out)
	}
	return errors.New("no command given")
}

func serverURL(opts docopt.Opts) string {
	if u, _ := opts.String("--url"); u != "" {
		return u
	}
	if u := os.Getenv("BOOKMARKD_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func list(ctx context.Context, c *client.Client, query string, out io.Writer) error {
	st, err := c.List(ctx, query)
	if err != nil {
		return err
	}
	if st.Error != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", st.Status, st.Error.Message)
	}
	printItems(out, st.Items, isTerminal(out))
	return nil
}

func add(ctx context.Context, c *client.Client, text string, out io.Writer) error {
	queued, err := c.Add(ctx, text)
	if err != nil {
		return err
	}
	if !queued {
		return errors.New("nothing to add: text is blank")
	}
	fmt.Fprintln(out, "add queued")
	return nil
}

// open prints the link of a URL bookmark, for use as `xdg-open $(bookmarkctl open ID)`.
func open(ctx context.Context, c *client.Client, id string, out io.Writer) error {
	st, err := c.List(ctx, "")
	if err != nil {
		return err
	}
	for _, b := range st.Items {
		if b.ID != id {
			continue
		}
		if !b.IsURL {
			return fmt.Errorf("bookmark %s is a note, not a link", id)
		}
		fmt.Fprintln(out, b.Href)
		return nil
	}
	return fmt.Errorf("bookmark %s not found", id)
}

func watch(ctx context.Context, c *client.Client, out io.Writer) error {
	tty := isTerminal(out)
	err := c.Watch(ctx, func(st api.State) error {
		if tty {
			fmt.Fprintf(out, "── %s · v%d · %d items ──\n", st.Status, st.Version, len(st.Items))
		} else {
			fmt.Fprintf(out, "# %s v%d\n", st.Status, st.Version)
		}
		if st.Error != nil {
			fmt.Fprintf(out, "error (%s): %s\n", st.Error.Kind, st.Error.Message)
		}
		printItems(out, st.Items, tty)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printItems writes an aligned table on a terminal and tab separated
// values otherwise.
func printItems(out io.Writer, items []api.Bookmark, tty bool) {
	if !tty {
		for _, b := range items {
			fmt.Fprintf(out, "%s\t%d\t%t\t%s\n", b.ID, b.Timestamp, b.IsURL, b.Text)
		}
		return
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "no bookmarks")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tKIND\tTEXT")
	for _, b := range items {
		kind := "note"
		if b.IsURL {
			kind = "link"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.CreatedAt.Local().Format(time.DateTime), kind, b.Text)
	}
	_ = tw.Flush()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "bookmarkctl: %v\n", err)
	os.Exit(1)
}
