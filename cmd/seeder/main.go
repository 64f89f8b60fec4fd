// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Seeder populates a SQLite database with sample documents so enrichment
// tasks have something to chew on. Each line of input becomes one row in
// the documents table, keyed by a content hash.
package main

import (
	"bufio"
	"database/sql"
	"flag"
	"iter"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/poiesic/enrichit/core"
)

var reviews = []string{
	"Arrived two days early and works exactly as described. Very happy.",
	"The battery died after a week. Support never answered my emails.",
	"Decent value for the price, though the finish feels a bit cheap.",
	"Absolutely love it. Bought a second one for my sister.",
	"Packaging was damaged but the product itself was fine.",
	"Stopped working after the first firmware update. Returning it.",
	"Does what it says on the box. Nothing more, nothing less.",
	"The instructions were only in German, but setup was intuitive anyway.",
	"Way louder than advertised. Could not use it in an apartment.",
	"Five stars for the build quality, three for the software.",
	"My third one of these. They keep getting better.",
	"The color in the photos is nothing like the real thing.",
	"Customer service replaced it free of charge within a week.",
	"It is fine. Just fine. I expected more at this price.",
	"Smaller than I expected, which turned out to be a good thing.",
	"The app pairs instantly and the battery lasts for days.",
	"Started rattling after a month of daily use.",
	"Perfect gift. My father uses it every morning.",
	"The subscription requirement is buried in the fine print. Avoid.",
	"Survived a drop onto concrete without a scratch. Impressed.",
}

var (
	dbPath   = flag.String("db", "./enrichit.db", "path to the SQLite database")
	table    = flag.String("table", "documents", "destination table name")
	srcFile  = flag.String("src", "", "file of seed documents, one per line")
	truncate = flag.Bool("truncate", false, "clear the table before seeding")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

func seed(db *sql.DB, table string, source iter.Seq[string]) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO "` + table + `" (key, body) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for line := range source {
		if line == "" {
			continue
		}
		key := core.KeyFromContent([]byte(line))
		result, err := stmt.Exec(string(key), line)
		if err != nil {
			return inserted, err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

func main() {
	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS "` + *table + `" (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`)
	if err != nil {
		slog.Error("create table", "error", err)
		os.Exit(1)
	}

	if *truncate {
		if _, err := db.Exec(`DELETE FROM "` + *table + `"`); err != nil {
			slog.Error("truncate table", "error", err)
			os.Exit(1)
		}
	}

	var source iter.Seq[string]
	if *srcFile != "" {
		source, err = linesFromFile(*srcFile)
		if err != nil {
			slog.Error("open seed file", "error", err)
			os.Exit(1)
		}
	} else {
		source = linesFromSlice(reviews)
	}

	inserted, err := seed(db, *table, source)
	if err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seeded documents", "db", *dbPath, "table", *table, "inserted", inserted)
}
