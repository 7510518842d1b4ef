// Command inspect prints the records stored under a key prefix.
package main

import (
	"crm-realtime/internal"
	"crm-realtime/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	// comments by default, "notification:", "message:{chat}", "seq:" work the same way
	prefix := flag.String("prefix", "comment:", "Prefix to scan")
	flag.Parse()

	// Read only so it can run next to a live server.
	db, err := internal.OpenStore(*dbPath, true)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	entries, err := repositories.Dump(db, *prefix)
	if err != nil {
		log.Fatal(err)
	}
	if len(entries) == 0 {
		fmt.Printf("No record under %q\n", *prefix)
		return
	}

	columns := fieldNames(entries)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(append([]string{"Key"}, columns...))
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

	for _, e := range entries {
		table.Append(row(e, columns))
	}
	table.Render()
}

// fieldNames is the sorted union of the field names of every entry.
func fieldNames(entries []repositories.Entry) []string {
	names := lo.Uniq(lo.FlatMap(entries, func(e repositories.Entry, _ int) []string {
		return lo.Keys(e.Fields)
	}))
	sort.Strings(names)
	return names
}

func row(e repositories.Entry, columns []string) []string {
	cells := lo.Map(columns, func(c string, _ int) string {
		v, ok := e.Fields[c]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
	return append([]string{e.Key}, cells...)
}
