package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fences-bot/domain"
	"fences-bot/projection"
	"fences-bot/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Read-only dump of the directory and boards, for debugging a live or
// offline store.
func main() {
	dbPath := flag.String("db", "./fences-data", "Path to badger DB")
	boards := flag.Bool("boards", true, "Include board contents")
	timeline := flag.Bool("timeline", false, "Print entries across all boards in chronological order")
	export := flag.String("export", "", "Render one member's board as plain text")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *export != "" {
		exportBoard(db, *export)
		return
	}

	if *timeline {
		printTimeline(db)
		return
	}

	printDirectory(db)
	if *boards {
		printBoards(db)
	}
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
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
	return table
}

func printDirectory(db *badger.DB) {
	var dir domain.Directory
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(repositories.SettingsKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &dir)
		})
	})
	if err != nil {
		log.Fatal("No settings document: ", err)
	}

	color.Cyan.Println("Directory")
	if dir.ExpirationAt != nil {
		state := "active"
		if dir.Expired(time.Now()) {
			state = "EXPIRED"
		}
		fmt.Printf("Expiration: %s (%s)\n", dir.ExpirationAt.Format(time.RFC822), state)
	} else {
		fmt.Println("Expiration: not set")
	}

	table := newTable([]string{"Username", "Label", "Admin", "Address"})
	for _, m := range dir.Members {
		admin := ""
		if m.IsAdmin {
			admin = "yes"
		}
		address := "never interacted"
		if m.Reachable() {
			address = fmt.Sprint(m.DeliveryAddress)
		}
		table.Append([]string{m.Username, m.Label, admin, address})
	}
	table.Render()
}

func printBoards(db *badger.DB) {
	color.Cyan.Println("\nBoards")
	table := newTable([]string{"Board", "Alias", "From", "Parts", "Created"})

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(repositories.BoardPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var board domain.Board
				if err := cbor.Unmarshal(val, &board); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(it.Item().Key()), err)
					return nil
				}
				for _, entry := range board.Entries {
					table.Append([]string{
						board.Username,
						entry.SenderAlias,
						entry.SenderUsername,
						fmt.Sprint(len(entry.Parts)),
						entry.CreatedAt.Format(time.DateTime),
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Board scan failed: ", err)
	}
	table.Render()
}

func printTimeline(db *badger.DB) {
	var dir domain.Directory
	var boards []domain.Board

	err := db.View(func(txn *badger.Txn) error {
		if item, err := txn.Get([]byte(repositories.SettingsKey)); err == nil {
			if err := item.Value(func(val []byte) error {
				return cbor.Unmarshal(val, &dir)
			}); err != nil {
				return err
			}
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(repositories.BoardPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var board domain.Board
				if err := cbor.Unmarshal(val, &board); err != nil {
					return err
				}
				boards = append(boards, board)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Timeline scan failed: ", err)
	}

	color.Cyan.Println("Timeline")
	table := newTable([]string{"Created", "Board", "Alias", "Parts", "Preview"})
	for _, item := range projection.BuildTimeline(&dir, boards).Items {
		table.Append([]string{
			item.CreatedAt.Format(time.DateTime),
			item.BoardOwner,
			item.Alias,
			fmt.Sprint(item.Parts),
			item.Preview,
		})
	}
	table.Render()
}

func exportBoard(db *badger.DB, username string) {
	var board domain.Board
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(repositories.BoardPrefix + strings.TrimPrefix(username, "@")))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &board)
		})
	})
	if err != nil {
		log.Fatal("No board for ", username, ": ", err)
	}
	fmt.Print(board.Render())
}
