// Command nios4 is a small CLI over the NIOS4 client: login, metadata
// listing, record search and save, file transfer, and forced sync.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nios4/go-nios4/client"
	"github.com/nios4/go-nios4/config"
)

const version = "0.1.0"

var (
	configPath  = flag.String("config", "", "Path to profile file (JSON)")
	showVersion = flag.Bool("version", false, "Show version information")
	database    = flag.String("db", "", "Database name (overrides profile)")
	table       = flag.String("table", "", "Table name")
	gguid       = flag.String("gguid", "", "Record or file gguid")
	filePath    = flag.String("file", "", "Local file path for upload/download")
	isImage     = flag.Bool("image", false, "Classify the upload as an image")
	query       = flag.String("query", "", "Search text")
	data        = flag.String("data", "", "Record values as a JSON object (for save)")
	isNew       = flag.Bool("new", false, "Treat the saved record as an insert")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: nios4 [flags] <command>

Commands:
  login      authenticate and print the session token
  dbs        list available databases
  users      list the database's users
  tables     list the database's tables
  fields     show a table's field metadata (requires -table)
  get        fetch one record (requires -table -gguid)
  find       search records (requires -table, optional -query)
  save       save one record (requires -table -data, optional -new)
  delete     delete one record (requires -table -gguid)
  sync       force a synchronization pass
  upload     upload a file (requires -table -gguid -file)
  download   download a file (requires -table -gguid -file)

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("nios4 version %s\n", version)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	c := client.New(cfg.ClientConfig())
	scope := client.Scope{Database: *database}

	if err := run(context.Background(), c, scope, flag.Arg(0)); err != nil {
		log.Error().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *debug && *logLevel == "info" {
		cfg.LogLevel = "debug"
	} else if *logLevel != "info" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// setupLogging configures the global logger
func setupLogging(cfg *config.Config) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func run(ctx context.Context, c *client.Client, scope client.Scope, command string) error {
	// Every command needs an authenticated session.
	if err := c.Login(ctx, scope); err != nil {
		return err
	}

	switch command {
	case "login":
		fmt.Println(c.Token())
		return nil

	case "dbs":
		dbs, err := c.DatabaseList(ctx, scope)
		if err != nil {
			return err
		}
		return printJSON(dbs)

	case "users":
		users, err := c.Users(ctx, scope)
		if err != nil {
			return err
		}
		return printJSON(users)

	case "tables":
		tables, err := c.TableList(ctx, scope)
		if err != nil {
			return err
		}
		return printJSON(tables)

	case "fields":
		if *table == "" {
			return fmt.Errorf("fields requires -table")
		}
		fields, err := c.FieldsInfo(ctx, *table, scope)
		if err != nil {
			return err
		}
		return printJSON(fields)

	case "get":
		if *table == "" || *gguid == "" {
			return fmt.Errorf("get requires -table and -gguid")
		}
		records, err := c.GetRecord(ctx, *table, *gguid, scope)
		if err != nil {
			return err
		}
		return printJSON(records)

	case "find":
		if *table == "" {
			return fmt.Errorf("find requires -table")
		}
		q := client.FindQuery{}
		if *query != "" {
			q.SearchFields = []string{"name"}
			q.Search = *query
		}
		records, err := c.FindRecords(ctx, *table, q, scope)
		if err != nil {
			return err
		}
		return printJSON(records)

	case "save":
		if *table == "" || *data == "" {
			return fmt.Errorf("save requires -table and -data")
		}
		var rec client.Record
		if err := json.Unmarshal([]byte(*data), &rec); err != nil {
			return fmt.Errorf("parsing -data: %w", err)
		}
		env, err := c.SaveRecord(ctx, *table, rec, client.SaveOptions{IsNew: *isNew}, scope)
		if err != nil {
			return err
		}
		return printJSON(env)

	case "delete":
		if *table == "" || *gguid == "" {
			return fmt.Errorf("delete requires -table and -gguid")
		}
		env, err := c.DeleteRecord(ctx, *table, *gguid, scope)
		if err != nil {
			return err
		}
		return printJSON(env)

	case "sync":
		env, err := c.Sync(ctx, scope)
		if err != nil {
			return err
		}
		return printJSON(env)

	case "upload":
		if *table == "" || *gguid == "" || *filePath == "" {
			return fmt.Errorf("upload requires -table, -gguid and -file")
		}
		if err := c.UploadFile(ctx, *filePath, *isImage, *gguid, *table, scope); err != nil {
			return err
		}
		log.Info().Str("gguid", *gguid).Msg("uploaded")
		return nil

	case "download":
		if *table == "" || *gguid == "" || *filePath == "" {
			return fmt.Errorf("download requires -table, -gguid and -file")
		}
		if err := c.DownloadFile(ctx, *filePath, *gguid, *table, scope); err != nil {
			return err
		}
		log.Info().Str("path", *filePath).Msg("downloaded")
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
