package storage

import (
	"fmt"

	"github.com/mama165/sdk-go/database"
)

// JournalMapper renders a journal row for the badger inspector.
func JournalMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	entry, err := decode(val)
	if err != nil {
		row.Detail = fmt.Sprintf("Error: %v", err)
		return row
	}

	row.Type = string(entry.Kind)
	row.Namespace = "journal"
	row.Timestamp = entry.At.Format("15:04:05")
	row.EntityID = fmt.Sprintf("#%d", entry.Seq)
	row.Detail = entry.Line
	return row
}
