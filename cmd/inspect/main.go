// Command inspect prints the newest secrets from the configured store.
//
// It reads the same environment as the server. A badger directory is locked while the
// server runs, so stop the server first or point BADGER_PATH at a copy.
package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"time"

	"secretbox/config"
	"secretbox/logger"
	"secretbox/models"
	"secretbox/render"
	"secretbox/store"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	limit := flag.Int("limit", 20, "Number of secrets to show, newest first")
	width := flag.Int("width", 60, "Truncate text to this many characters (0 = no limit)")
	flag.Parse()

	if err := run(os.Stdout, *limit, *width); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, limit, width int) error {
	if limit < 1 {
		return fmt.Errorf("-limit must be at least 1, got %d", limit)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(os.Stderr, "warn", "console")
	if cfg.StoreDriver == config.DriverBadger && cfg.BadgerPath == "" {
		return fmt.Errorf("BADGER_PATH is not set; an in-memory store has nothing to inspect")
	}
	if cfg.StoreDriver == config.DriverMemory {
		return fmt.Errorf("the memory store only lives inside the server process")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())

	msgs, err := backend.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}
	printTable(out, msgs, width)
	return nil
}

func printTable(out io.Writer, msgs []models.Message, width int) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Created", "Sender", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	table.AppendBulk(lo.Map(msgs, func(m models.Message, i int) []string {
		return []string{
			strconv.Itoa(i + 1),
			render.FormatTime(m.CreatedAt),
			m.Sender,
			truncate(html.UnescapeString(m.Text), width),
		}
	}))
	table.Render()
	fmt.Fprintf(out, "%d secret(s)\n", len(msgs))
}

// truncate shortens s to width runes and flattens newlines so each secret stays on one row.
func truncate(s string, width int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' || c == '\t' {
			r[i] = ' '
		}
	}
	if width > 0 && len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return string(r)
}
