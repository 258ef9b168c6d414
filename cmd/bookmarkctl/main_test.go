package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/go-playground/assert/v2"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
)

func TestServerURL(t *testing.T) {
	t.Setenv("BOOKMARKD_URL", "")
	assert.Equal(t, "http://localhost:8080", serverURL(docopt.Opts{}))

	t.Setenv("BOOKMARKD_URL", "http://env:9000")
	assert.Equal(t, "http://env:9000", serverURL(docopt.Opts{}))
	assert.Equal(t, "http://flag:1", serverURL(docopt.Opts{"--url": "http://flag:1"}))
}

func TestUsageParses(t *testing.T) {
	opts, err := docopt.ParseArgs(usage, []string{"add", "buy", "milk"}, "test")
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	add, _ := opts.Bool("add")
	assert.Equal(t, true, add)
	assert.Equal(t, []string{"buy", "milk"}, opts["<text>"])
}

func TestPrintItems(t *testing.T) {
	items := []api.Bookmark{
		{ID: "b", Text: "golang.org", Timestamp: 2000, IsURL: true, CreatedAt: time.UnixMilli(2000)},
		{ID: "a", Text: "buy milk", Timestamp: 1000, CreatedAt: time.UnixMilli(1000)},
	}

	var tsv bytes.Buffer
	printItems(&tsv, items, false)
	assert.Equal(t, "b\t2000\ttrue\tgolang.org\na\t1000\tfalse\tbuy milk\n", tsv.String())

	var table bytes.Buffer
	printItems(&table, items, true)
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, true, strings.HasPrefix(lines[0], "ID"))
	assert.Equal(t, true, strings.Contains(lines[1], "link"))
	assert.Equal(t, true, strings.Contains(lines[2], "note"))

	var empty bytes.Buffer
	printItems(&empty, nil, true)
	assert.Equal(t, "no bookmarks\n", empty.String())
}
