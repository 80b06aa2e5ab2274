// Command plotctl inspects and edits the plot inventory straight against the
// configured backing store, without going through the HTTP server.
//
//	plotctl list [-q text]
//	plotctl export -out plots.xlsx | plots.shp.zip
//	plotctl import -file site.kmz [-mode append|replace]
//	plotctl hash
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"p9e.in/plotdesk/config"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/backing"
	"p9e.in/plotdesk/pkg/inventory"
	"p9e.in/plotdesk/pkg/mapview"
	"p9e.in/plotdesk/pkg/session"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: plotctl <list|export|import|hash> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	log, err := config.NewLogger(cfg.LogLevel, "console", "plotctl")
	if err != nil {
		fatal(err)
	}
	defer log.Sync()

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "hash" {
		fatal(runHash())
		return
	}

	backend, closeBackend, err := backing.Open(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer closeBackend()
	store := inventory.NewStore(backend, log)

	switch cmd {
	case "list":
		err = runList(ctx, store, args)
	case "export":
		err = runExport(ctx, store, cfg, args)
	case "import":
		err = runImport(ctx, store, cfg, log, args)
	default:
		usage()
	}
	fatal(err)
}

func fatal(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "plotctl:", err)
		os.Exit(1)
	}
}

func runList(ctx context.Context, store *inventory.Store, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("q", "", "only rows containing this text")
	fs.Parse(args)

	table, err := store.Load(ctx)
	if err != nil {
		return err
	}
	table = inventory.Filter(table, *query)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Columns, "\t"))
	for _, rec := range table.Records {
		fmt.Fprintln(tw, strings.Join(inventory.RowCells(rec, table.Columns), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	st := inventory.Summarize(table)
	fmt.Printf("\n%d plots: %d available, %d booked, %d sold; %d on the map\n",
		st.Total,
		st.ByStatus[models.PlotStatusAvailable],
		st.ByStatus[models.PlotStatusBooked],
		st.ByStatus[models.PlotStatusSold],
		st.Mappable)
	return nil
}

func runExport(ctx context.Context, store *inventory.Store, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "plots.xlsx", "output file, .xlsx or .shp.zip")
	fs.Parse(args)

	table, err := store.Load(ctx)
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case strings.HasSuffix(strings.ToLower(*out), ".shp.zip"):
		data, err = mapview.ShapefileZip(table, "plots")
	case strings.HasSuffix(strings.ToLower(*out), ".xlsx"):
		data, err = backing.EncodeXLSX(inventory.ToSheet(table), cfg.SheetName)
	default:
		return fmt.Errorf("unsupported output %q, expected .xlsx or .shp.zip", *out)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %d plots to %s\n", table.Len(), *out)
	return nil
}

func runImport(ctx context.Context, store *inventory.Store, cfg config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "input .xlsx, .kml or .kmz")
	mode := fs.String("mode", "append", "append or replace")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	if *mode != "append" && *mode != "replace" {
		return fmt.Errorf("-mode must be append or replace")
	}
	if err := authenticate(cfg); err != nil {
		return err
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var (
		imported []models.PlotRecord
		warnings []string
	)
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".xlsx":
		sheet, err := backing.DecodeXLSX(data, cfg.SheetName)
		if err != nil {
			return err
		}
		t, w, err := inventory.FromSheet(sheet)
		if err != nil {
			return err
		}
		imported, warnings = t.Records, w
	case ".kmz":
		imported, warnings, err = mapview.ParseKMZ(data)
	case ".kml":
		imported, warnings, err = mapview.ParseKML(data)
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(*file))
	}
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn("import", zap.String("detail", w))
	}

	table, err := store.Load(ctx)
	if err != nil {
		return err
	}
	var next models.InventoryTable
	if *mode == "append" {
		next, err = store.Append(ctx, table, imported)
	} else {
		next, err = store.Replace(ctx, table, imported)
	}
	if err != nil {
		return err
	}
	fmt.Printf("imported %d plots (%s), table now has %d\n", len(imported), *mode, next.Len())
	return nil
}

// authenticate prompts for the admin pair on the terminal
func authenticate(cfg config.Config) error {
	gate := session.NewGate(cfg.AdminUsername, cfg.AdminPassword)

	var username string
	fmt.Print("Admin ID: ")
	fmt.Scanln(&username)
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if !gate.Authenticate(username, password) {
		return fmt.Errorf("invalid ID or password")
	}
	return nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var s string
		_, err := fmt.Scanln(&s)
		return s, err
	}
	b, err := term.ReadPassword(fd)
	fmt.Println()
	return string(b), err
}

// runHash prints a bcrypt hash to use as ADMIN_PASSWORD
func runHash() error {
	password, err := readPassword("Password to hash: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	// single quotes keep godotenv from expanding the $ segments
	fmt.Printf("ADMIN_PASSWORD='%s'\n", hash)
	return nil
}
