package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/mhutcheson/raingrid/internal/blobstore"
	"github.com/mhutcheson/raingrid/internal/caption"
	"github.com/mhutcheson/raingrid/internal/ingest"
	"github.com/mhutcheson/raingrid/internal/models"
	"github.com/mhutcheson/raingrid/internal/render"
	"github.com/mhutcheson/raingrid/internal/store"
)

type Globals struct {
	BaseURL    string `help:"Blob store base URL." env:"RAINGRID_BASE_URL" default:"https://wxarchive.s3.amazonaws.com"`
	FTPHost    string `help:"Anonymous FTP mirror (host:port); overrides the HTTP store." env:"RAINGRID_FTP_HOST"`
	FTPRoot    string `help:"Root path on the FTP mirror." env:"RAINGRID_FTP_ROOT" default:"/pub/wxarchive"`
	DB         string `help:"Path to the SQLite cache database." env:"RAINGRID_DB" default:"data/raingrid.db"`
	GridObject string `help:"Key of the reference grid object." default:"reference/latlon.nc.gz"`
	Category   string `help:"Variable category to aggregate." default:"rain_rate"`
	Variable   string `help:"Variable name inside each sample container." default:"rain"`
}

func (g *Globals) blobStore() blobstore.Store {
	if g.FTPHost != "" {
		return blobstore.NewFTPStore(g.FTPHost, g.FTPRoot)
	}
	return blobstore.NewHTTPStore(g.BaseURL)
}

func (g *Globals) openCache() (*store.Store, func(), error) {
	db, err := sql.Open("sqlite", g.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

type RenderFlags struct {
	Out     string `help:"Write a choropleth PNG to this path." type:"path"`
	Cell    int    `help:"Downsampling factor for rendering." default:"4"`
	Scale   int    `help:"Output pixels per rendered cell." default:"4"`
	Caption bool   `help:"Print a one-line caption generated with the OpenAI API."`
}

type DayCmd struct {
	Date string `arg:"" help:"Day to aggregate (YYYY-MM-DD)."`
	RenderFlags
}

func (c *DayCmd) Run(ctx context.Context, g *Globals) error {
	sel, err := parseSelection(g.Category, c.Date, "")
	if err != nil {
		return err
	}
	return runAggregation(ctx, g, sel, c.RenderFlags)
}

type SnapshotCmd struct {
	Date string `arg:"" help:"Day of the sample (YYYY-MM-DD)."`
	Time string `arg:"" help:"Time of day (HHMM UTC)."`
	RenderFlags
}

func (c *SnapshotCmd) Run(ctx context.Context, g *Globals) error {
	sel, err := parseSelection(g.Category, c.Date, c.Time)
	if err != nil {
		return err
	}
	return runAggregation(ctx, g, sel, c.RenderFlags)
}

type RunsCmd struct {
	Limit int `help:"How many runs to show." default:"10"`
}

func (c *RunsCmd) Run(ctx context.Context, g *Globals) error {
	cache, closeDB, err := g.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := cache.GetRuns(g.Category, c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("no recorded runs for %s\n", g.Category)
		return nil
	}
	for _, r := range runs {
		units := ""
		if r.Units.Valid {
			units = " " + r.Units.String
		}
		fmt.Printf("%s  %s  %-8s  %3d samples  max %.2f%s  %dms\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.RunDate.Format("2006-01-02"),
			r.Mode, r.Samples, r.MaxValue.Float64, units, r.DurationMS)
	}
	return nil
}

func parseSelection(category, date, tod string) (models.SelectionKey, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return models.SelectionKey{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return models.SelectionKey{
		Category: category,
		Year:     d.Year(),
		Month:    int(d.Month()),
		Day:      d.Day(),
		Time:     tod,
	}, nil
}

func runAggregation(ctx context.Context, g *Globals, sel models.SelectionKey, rf RenderFlags) error {
	cache, closeDB, err := g.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	bs := g.blobStore()
	loader := ingest.NewGridLoader(bs, cache, g.GridObject)
	fetcher := ingest.NewSampleFetcher(bs, g.Variable)
	runner := ingest.NewRunner(bs, loader, fetcher, cache)

	res, err := runner.Run(ctx, sel)
	if err != nil {
		return err
	}
	summary := res.Aggregate.Summarize()

	if rf.Out != "" {
		coords := render.DownsampleGrid(res.Grid, rf.Cell)
		latMin, latMax, lonMin, lonMax := render.Extent(coords)
		log.Printf("extent: lat %.2f..%.2f lon %.2f..%.2f", latMin, latMax, lonMin, lonMax)

		f, err := os.Create(rf.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", rf.Out, err)
		}
		defer f.Close()

		img, err := render.Map(res.Aggregate, render.Options{Cell: rf.Cell, Scale: rf.Scale})
		if err != nil {
			return err
		}
		if err := render.WritePNG(f, img); err != nil {
			return fmt.Errorf("write %s: %w", rf.Out, err)
		}
		log.Printf("wrote %s (%dx downsampled)", rf.Out, rf.Cell)
	}

	if rf.Caption {
		gen, err := caption.NewGenerator()
		if err != nil {
			log.Printf("caption: %v", err)
			return nil
		}
		date := fmt.Sprintf("%04d-%02d-%02d", sel.Year, sel.Month, sel.Day)
		text, err := gen.Describe(ctx, sel.Category, date, summary, res.Units)
		if err != nil {
			log.Printf("caption: %v", err)
			return nil
		}
		fmt.Println(text)
	}

	return nil
}

var cli struct {
	Globals

	Day      DayCmd      `cmd:"" help:"Sum every sample found under a day's key prefix."`
	Snapshot SnapshotCmd `cmd:"" help:"Aggregate a single time-of-day sample."`
	Runs     RunsCmd     `cmd:"" help:"Show recent run history."`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ktx := kong.Parse(&cli,
		kong.Name("raingrid"),
		kong.Description("Aggregates gridded rain-rate samples from a public blob store and renders choropleth maps."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := ktx.Run(&cli.Globals); err != nil {
		log.Fatal(err)
	}
}
