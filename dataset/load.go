package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"salesboard/feed"
)

// FeedStatus is the typed outcome of loading one feed. A failed feed never
// fails the whole load; views depending on it degrade individually.
type FeedStatus string

const (
	FeedOK            FeedStatus = "ok"
	FeedMissing       FeedStatus = "missing"
	FeedUnreadable    FeedStatus = "unreadable"
	FeedSchemaInvalid FeedStatus = "schema-invalid"
)

// FeedReport describes the load outcome for a single feed, distinguishing
// "file absent" from "file present but unusable" so diagnostics can say
// which input to fix.
type FeedReport struct {
	Name   string     `json:"name"`
	Status FeedStatus `json:"status"`
	Path   string     `json:"path,omitempty"`
	Rows   int        `json:"rows"`
	Reason string     `json:"reason,omitempty"`
}

// Report is the per-feed outcome of one consolidated load.
type Report struct {
	Sales        FeedReport `json:"sales"`
	PreSales     FeedReport `json:"presales"`
	Clients      FeedReport `json:"clients"`
	Rejections   FeedReport `json:"rejections"`
	LoadedAt     time.Time  `json:"loaded_at"`
	FromSnapshot bool       `json:"from_snapshot"`
}

// Feeds returns the per-feed reports in a fixed order.
func (r *Report) Feeds() []FeedReport {
	return []FeedReport{r.Sales, r.PreSales, r.Clients, r.Rejections}
}

// feedSpec ties a feed name to its discovery keywords.
var feedSpecs = struct {
	sales, presales, clients, rejections struct {
		keywords, exclude []string
	}
}{}

func init() {
	feedSpecs.sales.keywords = []string{"venta", "completa"}
	// "preventa_completa" contains both sales keywords, so exclude it here.
	feedSpecs.sales.exclude = []string{"preventa", "rebote"}
	feedSpecs.presales.keywords = []string{"preventa"}
	feedSpecs.clients.keywords = []string{"maestro", "cliente"}
	feedSpecs.rejections.keywords = []string{"rebotes"}
}

// feedExtensions are the accepted input file extensions.
var feedExtensions = []string{".csv"}

// RawFeeds holds the located and parsed (but not yet normalized) feed
// tables. A nil table means the feed was missing or unreadable; the
// accompanying Report says which.
type RawFeeds struct {
	Sales      *feed.Table
	PreSales   *feed.Table
	Clients    *feed.Table
	Rejections *feed.Table

	// Hash combines the content hashes of the present feeds and keys the
	// snapshot store.
	Hash string
}

// Loader locates, reads and normalizes the four feeds from a data directory.
type Loader struct {
	dir      string
	channels ChannelMap
	logger   *log.Logger
}

// NewLoader returns a Loader over the given data directory.
func NewLoader(dir string, channels ChannelMap, logger *log.Logger) *Loader {
	return &Loader{dir: dir, channels: channels, logger: logger}
}

// Fetch locates and reads the four feed files concurrently. Missing or
// unreadable feeds are recorded in the report, never returned as errors; the
// only error is context cancellation.
func (l *Loader) Fetch(ctx context.Context) (*RawFeeds, *Report, error) {
	raw := &RawFeeds{}
	report := &Report{
		Sales:      FeedReport{Name: "sales"},
		PreSales:   FeedReport{Name: "presales"},
		Clients:    FeedReport{Name: "clients"},
		Rejections: FeedReport{Name: "rejections"},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw.Sales = l.fetchOne(ctx, &report.Sales, feedSpecs.sales.keywords, feedSpecs.sales.exclude)
		return ctx.Err()
	})
	g.Go(func() error {
		raw.PreSales = l.fetchOne(ctx, &report.PreSales, feedSpecs.presales.keywords, nil)
		return ctx.Err()
	})
	g.Go(func() error {
		raw.Clients = l.fetchOne(ctx, &report.Clients, feedSpecs.clients.keywords, nil)
		return ctx.Err()
	})
	g.Go(func() error {
		raw.Rejections = l.fetchOne(ctx, &report.Rejections, feedSpecs.rejections.keywords, nil)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	raw.Hash = combinedHash(raw)
	return raw, report, nil
}

// fetchOne locates and parses a single feed, recording the outcome.
func (l *Loader) fetchOne(_ context.Context, fr *FeedReport, keywords, exclude []string) *feed.Table {
	path, err := feed.Locate(l.dir, keywords, exclude, feedExtensions)
	if err != nil {
		fr.Status = FeedMissing
		fr.Reason = err.Error()
		l.logger.Warn("feed not found", "feed", fr.Name, "keywords", keywords)
		return nil
	}
	fr.Path = path

	table, err := feed.ReadTable(path)
	if err != nil {
		fr.Status = FeedUnreadable
		fr.Reason = err.Error()
		l.logger.Warn("feed unreadable", "feed", fr.Name, "path", path, "err", err)
		return nil
	}
	fr.Status = FeedOK
	fr.Rows = len(table.Rows)
	l.logger.Info("feed read", "feed", fr.Name, "path", path, "rows", len(table.Rows))
	return table
}

// Consolidate normalizes the raw feeds into a Dataset, enriching sales with
// the client master when both loaded. Schema failures downgrade the
// affected feed in the report and leave its table empty.
func (l *Loader) Consolidate(raw *RawFeeds, report *Report) *Dataset {
	ds := &Dataset{Hash: raw.Hash, LoadedAt: time.Now().UTC()}

	if raw.Sales != nil {
		sales, err := NormalizeSales(raw.Sales, l.channels)
		if err != nil {
			downgrade(&report.Sales, err)
			l.logger.Warn("sales feed rejected", "err", err)
		} else {
			ds.Sales = sales
			report.Sales.Rows = len(sales)
		}
	}
	if raw.Clients != nil {
		clients, err := NormalizeClientMaster(raw.Clients)
		if err != nil {
			downgrade(&report.Clients, err)
			l.logger.Warn("client master rejected", "err", err)
		} else {
			ds.Clients = clients
			report.Clients.Rows = len(clients)
		}
	}
	if raw.PreSales != nil {
		orders, err := NormalizePreSales(raw.PreSales)
		if err != nil {
			downgrade(&report.PreSales, err)
			l.logger.Warn("pre-sale feed rejected", "err", err)
		} else {
			ds.PreSales = orders
			report.PreSales.Rows = len(orders)
		}
	}
	if raw.Rejections != nil {
		records, err := NormalizeRejections(raw.Rejections)
		if err != nil {
			downgrade(&report.Rejections, err)
			l.logger.Warn("rejected-delivery feed rejected", "err", err)
		} else {
			ds.Rejections = records
			report.Rejections.Rows = len(records)
		}
	}

	if ds.HasSales() && ds.HasClients() {
		ds.Sales = Enrich(ds.Sales, ds.Clients, l.channels)
	}

	report.LoadedAt = ds.LoadedAt
	return ds
}

// Load is Fetch followed by Consolidate, for callers without a snapshot
// store to consult in between.
func (l *Loader) Load(ctx context.Context) (*Dataset, *Report, error) {
	raw, report, err := l.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return l.Consolidate(raw, report), report, nil
}

func downgrade(fr *FeedReport, err error) {
	if errors.Is(err, ErrSchemaInvalid) {
		fr.Status = FeedSchemaInvalid
	} else {
		fr.Status = FeedUnreadable
	}
	fr.Reason = err.Error()
	fr.Rows = 0
}

// combinedHash derives one hash over the present feeds in a fixed order so
// that any byte change in any feed produces a new snapshot key.
func combinedHash(raw *RawFeeds) string {
	h := sha256.New()
	for _, part := range []struct {
		name  string
		table *feed.Table
	}{
		{"sales", raw.Sales},
		{"presales", raw.PreSales},
		{"clients", raw.Clients},
		{"rejections", raw.Rejections},
	} {
		content := ""
		if part.table != nil {
			content = part.table.Hash
		}
		fmt.Fprintf(h, "%s:%s\n", part.name, content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
