package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/cache"
	"github.com/gridbase/gridbase/internal/query"
	"github.com/gridbase/gridbase/internal/registry"
	"github.com/gridbase/gridbase/internal/util"
)

var cyan = color.New(color.FgCyan).SprintFunc()

func connectToDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a list or read against a table using a metadata document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		log := newLogger(cmd)
		defer util.RecoverPanic(log)

		metaFile := mustFlagString(cmd, "meta", true)
		tableID := mustFlagString(cmd, "table", true)
		viewID := mustFlagString(cmd, "view", false)
		rowID := mustFlagString(cmd, "row", false)
		fields := mustFlagString(cmd, "fields", false)
		dryRun := mustFlagBool(cmd, "dry-run", false)

		meta, err := registry.NewFileRegistry(metaFile)
		if err != nil {
			log.Fatal("error loading metadata: %s", err)
		}
		table, err := meta.GetTable(tableID)
		if err != nil {
			log.Fatal("%s", err)
		}
		var view *internal.View
		if viewID != "" {
			if view, err = meta.GetView(viewID); err != nil {
				log.Fatal("%s", err)
			}
		}

		params := internal.QueryParams{
			Limit:        mustFlagInt(cmd, "limit", false),
			Offset:       mustFlagInt(cmd, "offset", false),
			Shuffle:      mustFlagBool(cmd, "shuffle", false),
			ExcludeCount: mustFlagBool(cmd, "exclude-count", false),
			Strict:       mustFlagBool(cmd, "strict", false),
		}
		if fields != "" {
			params.Fields = strings.Split(fields, ",")
		}

		cfg := query.Config{Context: ctx, Logger: log, Meta: meta}
		if !dryRun {
			dbURL := mustFlagString(cmd, "db-url", true)
			db, err := connectToDB(ctx, dbURL)
			if err != nil {
				log.Fatal("error connecting to db: %s", err)
			}
			defer db.Close()
			cfg.DB = db
			store, err := cache.New(cache.Config{Context: ctx, Logger: log, Dir: mustFlagString(cmd, "data-dir", false)})
			if err != nil {
				log.Fatal("error opening query cache: %s", err)
			}
			defer store.Close()
			cfg.Cache = store
		}
		engine := query.New(cfg)

		if dryRun {
			if rowID != "" {
				text, err := engine.CompileRead(table, view, params)
				if err != nil {
					log.Fatal("compile failed: %s", err)
				}
				fmt.Println(cyan(text))
				return
			}
			rowSQL, countSQL, err := engine.CompileList(table, view, params)
			if err != nil {
				log.Fatal("compile failed: %s", err)
			}
			fmt.Println(cyan(rowSQL))
			fmt.Println(cyan(countSQL))
			return
		}

		if rowID != "" {
			row, err := engine.ReadOne(ctx, table, view, []any{rowID}, params)
			if err != nil {
				log.Fatal("read failed: %s", err)
			}
			if row == nil {
				log.Info("row not found")
				os.Exit(1)
			}
			fmt.Println(util.JSONStringify(row))
			return
		}
		res, err := engine.ListRows(ctx, table, view, params)
		if err != nil {
			log.Fatal("list failed: %s", err)
		}
		for _, row := range res.Rows {
			fmt.Println(util.JSONStringify(row))
		}
		if res.TotalCount == internal.CountUnknown {
			log.Info("total: unknown (%v)", res.Stats.DBQueryTime)
		} else {
			log.Info("total: %d (%v)", res.TotalCount, res.Stats.DBQueryTime)
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().String("meta", "", "path to the metadata document")
	queryCmd.Flags().String("table", "", "the table id to query")
	queryCmd.Flags().String("view", "", "the view id to query through")
	queryCmd.Flags().String("row", "", "read a single row by primary key")
	queryCmd.Flags().String("fields", "", "comma separated column titles to return")
	queryCmd.Flags().Int("limit", 0, "page size")
	queryCmd.Flags().Int("offset", 0, "page offset")
	queryCmd.Flags().Bool("shuffle", false, "order randomly")
	queryCmd.Flags().Bool("exclude-count", false, "skip the count query")
	queryCmd.Flags().Bool("strict", false, "reject invalid filter/sort params")
	queryCmd.Flags().Bool("dry-run", false, "print the compiled SQL without executing")
}
