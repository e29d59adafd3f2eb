package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"syncbridge/domain"
	"syncbridge/infrastructure/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

const pageSize = 500

// journal prints the archived chat lines, oldest first.
func main() {
	dbPath := flag.String("db", defaultPath(), "Path to the badger journal")
	limit := flag.Int("limit", 0, "Maximum number of lines, 0 for all")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repository := storage.NewJournalRepository(db, logs.GetLoggerFromLevel(slog.LevelWarn))
	entries, err := readAll(repository, *limit)
	if err != nil {
		log.Fatal(err)
	}
	render(os.Stdout, entries)
}

func defaultPath() string {
	if path := os.Getenv("BADGER_FILEPATH"); path != "" {
		return path
	}
	return database.DefaultPath
}

// readAll pages through the journal until limit lines are read or the journal ends.
func readAll(repository storage.IJournalRepository, limit int) ([]domain.Entry, error) {
	var all []domain.Entry
	var cursor *string
	for {
		size := pageSize
		if limit > 0 {
			size = min(pageSize, limit-len(all))
		}
		page, next, err := repository.List(cursor, size)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == nil || len(page) < size || (limit > 0 && len(all) >= limit) {
			return all, nil
		}
		cursor = next
	}
}

func render(w io.Writer, entries []domain.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Seq", "At", "Kind", "Line"})
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

	for _, entry := range entries {
		table.Append([]string{
			strconv.FormatUint(entry.Seq, 10),
			entry.At.Format("2006-01-02 15:04:05"),
			string(entry.Kind),
			entry.Line,
		})
	}
	table.Render()
	fmt.Fprintf(w, "%d line(s)\n", len(entries))
}
