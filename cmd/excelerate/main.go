package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"
	"golang.org/x/text/language"

	"excelerate/internal/config"
	"excelerate/internal/datecodec"
	"excelerate/internal/notify"
	"excelerate/internal/storage"
	"excelerate/internal/ui"
	"excelerate/internal/view"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("excelerate", flag.ContinueOnError)
	configPath := flags.StringP("config", "c", config.ResolveConfigPath(), "config file")
	dataDir := flags.StringP("dir", "d", "", "directory holding the spreadsheet (overrides config)")
	fileName := flags.StringP("file", "f", "", "spreadsheet file name (overrides config)")
	list := flags.BoolP("list", "l", false, "print visible records and exit")
	upcoming := flags.BoolP("upcoming", "u", false, "show upcoming records only")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return 1
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *fileName != "" {
		cfg.FileName = *fileName
	}
	if *upcoming {
		cfg.UpcomingOnly = true
	}

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "excelerate")
		if err != nil {
			fmt.Printf("failed to open log file: %v\n", err)
			return 1
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	store, err := storage.New(cfg.DataDir, cfg.FileName)
	if err != nil {
		fmt.Printf("failed to open storage: %v\n", err)
		return 1
	}
	gate := storage.DirGate{Dir: cfg.DataDir}

	if *list {
		return printList(store, gate, cfg)
	}

	outbox, err := notify.Open(cfg.ReminderDB)
	if err != nil {
		fmt.Printf("failed to open reminder database: %v\n", err)
		return 1
	}
	defer outbox.Close()
	scheduler := notify.Scheduler{Outbox: outbox, Hour: cfg.ReminderHour}

	if err := ui.Run(store, gate, scheduler, cfg); err != nil {
		fmt.Printf("error running program: %v\n", err)
		return 1
	}
	return 0
}

func printList(store *storage.Store, gate storage.PermissionGate, cfg config.Config) int {
	records, err := store.Load(gate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "excelerate: %v\n", err)
		return 1
	}
	key, err := view.ParseKey(cfg.SortKey)
	if err != nil {
		key = view.KeySequence
	}
	dir, err := view.ParseDirection(cfg.SortDirection)
	if err != nil {
		dir = view.Asc
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}
	rows := view.VisibleRecords(view.SortByLocale(records, key, dir, tag), view.Options{
		HideStaleCompleted: cfg.HideStaleCompleted,
		UpcomingOnly:       cfg.UpcomingOnly,
	}, time.Now())
	for _, r := range rows {
		done := " "
		if r.Completed {
			done = "x"
		}
		fmt.Printf("%d\t[%s]\t%s\t%s\t%s\n", r.SequenceNumber, done, r.Item, datecodec.ToDisplayString(r.Date), r.Description)
	}
	return 0
}
