// Package store persists consolidated dataset snapshots to SQLite, keyed by
// the combined content hash of the source feeds. A start against unchanged
// feed files becomes a single keyed read instead of a re-parse of every CSV.
//
// The database is not a query engine here; the aggregation views run over
// the in-memory dataset. SQLite's job is durable, transactional snapshot
// storage that can be inspected with the sqlite command line.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx" // helper library
	_ "modernc.org/sqlite"    // pure go sqlite driver

	"salesboard/dataset"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoSnapshot reports that no snapshot exists for the requested hash.
var ErrNoSnapshot = errors.New("no snapshot for hash")

// insertChunk bounds the rows per batched insert to stay under SQLite's
// bound-variable limit.
const insertChunk = 500

// Store wraps the sqlx connection for snapshot operations.
type Store struct {
	*sqlx.DB
}

// Open creates a connection to the SQLite snapshot database at the given
// path.
func Open(dbPath string) (*Store, error) {

	// dataSource is the default setting for file-based databases.
	dataSource := fmt.Sprintf("%s?_dataSource=foreign_keys(1)&_dataSource=journal_mode(WAL)", dbPath)

	// for in-memory test databases, check the necessary cached setting is used.
	if strings.Contains(dbPath, ":memory:") {
		if !strings.Contains(dbPath, "cache=shared") {
			return nil, fmt.Errorf("in-memory connection %q should contain '?cache=shared'", dbPath)
		}
		dataSource = dbPath
	}
	sqlDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return &Store{DB: sqlx.NewDb(sqlDB, "sqlite")}, nil
}

// Init creates the schema. It can be run idempotently.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// SnapshotMeta describes a stored snapshot.
type SnapshotMeta struct {
	Hash      string    `db:"hash" json:"hash"`
	LoadedAt  time.Time `db:"-" json:"loaded_at"`
	CreatedAt time.Time `db:"-" json:"created_at"`
}

// Row types mirror the dataset types with db tags; dates travel as RFC3339
// text with the zero time as the empty string.

type saleRow struct {
	SnapshotHash      string  `db:"snapshot_hash"`
	TransactionID     string  `db:"transaction_id"`
	ClientID          string  `db:"client_id"`
	ClientName        string  `db:"client_name"`
	Salesperson       string  `db:"salesperson"`
	SourceSalesperson string  `db:"source_salesperson"`
	SaleDate          string  `db:"sale_date"`
	Week              int     `db:"week"`
	Amount            float64 `db:"amount"`
	Channel           string  `db:"channel"`
	Product           string  `db:"product"`
	PaymentType       string  `db:"payment_type"`
	PreSaleRef        string  `db:"presale_ref"`
	Cluster           string  `db:"cluster"`
	Hierarchy1        string  `db:"hierarchy1"`
	Category          string  `db:"category"`
}

type preSaleRow struct {
	SnapshotHash string  `db:"snapshot_hash"`
	CrossRef     string  `db:"cross_ref"`
	Salesperson  string  `db:"salesperson"`
	Product      string  `db:"product"`
	OrderDate    string  `db:"order_date"`
	Amount       float64 `db:"amount"`
}

type clientRow struct {
	SnapshotHash string  `db:"snapshot_hash"`
	ClientID     string  `db:"client_id"`
	ClientName   string  `db:"client_name"`
	Salesperson  string  `db:"salesperson"`
	VisitDay     string  `db:"visit_day"`
	Latitude     float64 `db:"latitude"`
	Longitude    float64 `db:"longitude"`
	HasGeo       bool    `db:"has_geo"`
}

type rejectionRow struct {
	SnapshotHash string  `db:"snapshot_hash"`
	ClientID     string  `db:"client_id"`
	ClientName   string  `db:"client_name"`
	Salesperson  string  `db:"salesperson"`
	Zone         string  `db:"zone"`
	Distributor  string  `db:"distributor"`
	Reason       string  `db:"reason"`
	DeliveryDate string  `db:"delivery_date"`
	Amount       float64 `db:"amount"`
}

type feedRow struct {
	SnapshotHash string `db:"snapshot_hash"`
	Name         string `db:"name"`
	Status       string `db:"status"`
	Path         string `db:"path"`
	RowCount     int    `db:"row_count"`
	Reason       string `db:"reason"`
}

// timeToText serializes a time for storage; the zero time becomes "".
func timeToText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// textToTime is the inverse of timeToText; "" and unparseable values come
// back as the zero time.
func textToTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Save writes the dataset and its load report as one snapshot in a single
// transaction, replacing any previous snapshot with the same hash.
func (s *Store) Save(ctx context.Context, ds *dataset.Dataset, report *dataset.Report) error {
	if ds == nil || ds.Hash == "" {
		return fmt.Errorf("cannot save a snapshot without a hash")
	}

	tx, err := s.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_feeds", "sales", "presales", "clients", "rejections", "snapshots"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, hashColumn(table)), ds.Hash,
		); err != nil {
			return fmt.Errorf("could not clear %s for snapshot: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (hash, loaded_at, created_at) VALUES (?, ?, ?)",
		ds.Hash, timeToText(ds.LoadedAt), timeToText(time.Now()),
	); err != nil {
		return fmt.Errorf("could not insert snapshot row: %w", err)
	}

	feeds := make([]feedRow, 0, 4)
	for _, fr := range report.Feeds() {
		feeds = append(feeds, feedRow{
			SnapshotHash: ds.Hash,
			Name:         fr.Name,
			Status:       string(fr.Status),
			Path:         fr.Path,
			RowCount:     fr.Rows,
			Reason:       fr.Reason,
		})
	}
	if err := namedInsert(ctx, tx,
		`INSERT INTO snapshot_feeds (snapshot_hash, name, status, path, row_count, reason)
		 VALUES (:snapshot_hash, :name, :status, :path, :row_count, :reason)`, feeds,
	); err != nil {
		return fmt.Errorf("could not insert feed reports: %w", err)
	}

	sales := make([]saleRow, 0, len(ds.Sales))
	for _, v := range ds.Sales {
		sales = append(sales, saleRow{
			SnapshotHash:      ds.Hash,
			TransactionID:     v.TransactionID,
			ClientID:          v.ClientID,
			ClientName:        v.ClientName,
			Salesperson:       v.Salesperson,
			SourceSalesperson: v.SourceSalesperson,
			SaleDate:          timeToText(v.Date),
			Week:              v.Week,
			Amount:            v.Amount,
			Channel:           v.Channel,
			Product:           v.Product,
			PaymentType:       v.PaymentType,
			PreSaleRef:        v.PreSaleRef,
			Cluster:           v.Cluster,
			Hierarchy1:        v.Hierarchy1,
			Category:          v.Category,
		})
	}
	if err := namedInsert(ctx, tx,
		`INSERT INTO sales (snapshot_hash, transaction_id, client_id, client_name, salesperson,
		 source_salesperson, sale_date, week, amount, channel, product, payment_type,
		 presale_ref, cluster, hierarchy1, category)
		 VALUES (:snapshot_hash, :transaction_id, :client_id, :client_name, :salesperson,
		 :source_salesperson, :sale_date, :week, :amount, :channel, :product, :payment_type,
		 :presale_ref, :cluster, :hierarchy1, :category)`, sales,
	); err != nil {
		return fmt.Errorf("could not insert sales rows: %w", err)
	}

	presales := make([]preSaleRow, 0, len(ds.PreSales))
	for _, v := range ds.PreSales {
		presales = append(presales, preSaleRow{
			SnapshotHash: ds.Hash,
			CrossRef:     v.CrossRef,
			Salesperson:  v.Salesperson,
			Product:      v.Product,
			OrderDate:    timeToText(v.Date),
			Amount:       v.Amount,
		})
	}
	if err := namedInsert(ctx, tx,
		`INSERT INTO presales (snapshot_hash, cross_ref, salesperson, product, order_date, amount)
		 VALUES (:snapshot_hash, :cross_ref, :salesperson, :product, :order_date, :amount)`, presales,
	); err != nil {
		return fmt.Errorf("could not insert presale rows: %w", err)
	}

	clients := make([]clientRow, 0, len(ds.Clients))
	for _, v := range ds.Clients {
		clients = append(clients, clientRow{
			SnapshotHash: ds.Hash,
			ClientID:     v.ClientID,
			ClientName:   v.ClientName,
			Salesperson:  v.Salesperson,
			VisitDay:     v.VisitDay,
			Latitude:     v.Latitude,
			Longitude:    v.Longitude,
			HasGeo:       v.HasGeo,
		})
	}
	if err := namedInsert(ctx, tx,
		`INSERT INTO clients (snapshot_hash, client_id, client_name, salesperson, visit_day,
		 latitude, longitude, has_geo)
		 VALUES (:snapshot_hash, :client_id, :client_name, :salesperson, :visit_day,
		 :latitude, :longitude, :has_geo)`, clients,
	); err != nil {
		return fmt.Errorf("could not insert client rows: %w", err)
	}

	rejections := make([]rejectionRow, 0, len(ds.Rejections))
	for _, v := range ds.Rejections {
		rejections = append(rejections, rejectionRow{
			SnapshotHash: ds.Hash,
			ClientID:     v.ClientID,
			ClientName:   v.ClientName,
			Salesperson:  v.Salesperson,
			Zone:         v.Zone,
			Distributor:  v.Distributor,
			Reason:       v.Reason,
			DeliveryDate: timeToText(v.DeliveryDate),
			Amount:       v.Amount,
		})
	}
	if err := namedInsert(ctx, tx,
		`INSERT INTO rejections (snapshot_hash, client_id, client_name, salesperson, zone,
		 distributor, reason, delivery_date, amount)
		 VALUES (:snapshot_hash, :client_id, :client_name, :salesperson, :zone,
		 :distributor, :reason, :delivery_date, :amount)`, rejections,
	); err != nil {
		return fmt.Errorf("could not insert rejection rows: %w", err)
	}

	return tx.Commit()
}

// Load reads the snapshot for the given hash, returning ErrNoSnapshot when
// none exists. The report comes back with FromSnapshot set.
func (s *Store) Load(ctx context.Context, hash string) (*dataset.Dataset, *dataset.Report, error) {
	var meta struct {
		Hash     string `db:"hash"`
		LoadedAt string `db:"loaded_at"`
	}
	err := s.GetContext(ctx, &meta,
		"SELECT hash, loaded_at FROM snapshots WHERE hash = ?", hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, nil, fmt.Errorf("could not read snapshot row: %w", err)
	}

	ds := &dataset.Dataset{Hash: meta.Hash, LoadedAt: textToTime(meta.LoadedAt)}

	var sales []saleRow
	if err := s.SelectContext(ctx, &sales,
		"SELECT * FROM sales WHERE snapshot_hash = ?", hash); err != nil {
		return nil, nil, fmt.Errorf("could not read sales rows: %w", err)
	}
	for _, r := range sales {
		ds.Sales = append(ds.Sales, dataset.Sale{
			TransactionID:     r.TransactionID,
			ClientID:          r.ClientID,
			ClientName:        r.ClientName,
			Salesperson:       r.Salesperson,
			SourceSalesperson: r.SourceSalesperson,
			Date:              textToTime(r.SaleDate),
			Week:              r.Week,
			Amount:            r.Amount,
			Channel:           r.Channel,
			Product:           r.Product,
			PaymentType:       r.PaymentType,
			PreSaleRef:        r.PreSaleRef,
			Cluster:           r.Cluster,
			Hierarchy1:        r.Hierarchy1,
			Category:          r.Category,
		})
	}

	var presales []preSaleRow
	if err := s.SelectContext(ctx, &presales,
		"SELECT * FROM presales WHERE snapshot_hash = ?", hash); err != nil {
		return nil, nil, fmt.Errorf("could not read presale rows: %w", err)
	}
	for _, r := range presales {
		ds.PreSales = append(ds.PreSales, dataset.PreSaleOrder{
			CrossRef:    r.CrossRef,
			Salesperson: r.Salesperson,
			Product:     r.Product,
			Date:        textToTime(r.OrderDate),
			Amount:      r.Amount,
		})
	}

	var clients []clientRow
	if err := s.SelectContext(ctx, &clients,
		"SELECT * FROM clients WHERE snapshot_hash = ?", hash); err != nil {
		return nil, nil, fmt.Errorf("could not read client rows: %w", err)
	}
	for _, r := range clients {
		ds.Clients = append(ds.Clients, dataset.ClientMasterEntry{
			ClientID:    r.ClientID,
			ClientName:  r.ClientName,
			Salesperson: r.Salesperson,
			VisitDay:    r.VisitDay,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			HasGeo:      r.HasGeo,
		})
	}

	var rejections []rejectionRow
	if err := s.SelectContext(ctx, &rejections,
		"SELECT * FROM rejections WHERE snapshot_hash = ?", hash); err != nil {
		return nil, nil, fmt.Errorf("could not read rejection rows: %w", err)
	}
	for _, r := range rejections {
		ds.Rejections = append(ds.Rejections, dataset.RejectionRecord{
			ClientID:     r.ClientID,
			ClientName:   r.ClientName,
			Salesperson:  r.Salesperson,
			Zone:         r.Zone,
			Distributor:  r.Distributor,
			Reason:       r.Reason,
			DeliveryDate: textToTime(r.DeliveryDate),
			Amount:       r.Amount,
		})
	}

	var feeds []feedRow
	if err := s.SelectContext(ctx, &feeds,
		"SELECT * FROM snapshot_feeds WHERE snapshot_hash = ?", hash); err != nil {
		return nil, nil, fmt.Errorf("could not read feed reports: %w", err)
	}
	report := &dataset.Report{LoadedAt: ds.LoadedAt, FromSnapshot: true}
	for _, f := range feeds {
		fr := dataset.FeedReport{
			Name:   f.Name,
			Status: dataset.FeedStatus(f.Status),
			Path:   f.Path,
			Rows:   f.RowCount,
			Reason: f.Reason,
		}
		switch f.Name {
		case "sales":
			report.Sales = fr
		case "presales":
			report.PreSales = fr
		case "clients":
			report.Clients = fr
		case "rejections":
			report.Rejections = fr
		}
	}
	return ds, report, nil
}

// Snapshots lists the stored snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]SnapshotMeta, error) {
	var rows []struct {
		Hash      string `db:"hash"`
		LoadedAt  string `db:"loaded_at"`
		CreatedAt string `db:"created_at"`
	}
	if err := s.SelectContext(ctx, &rows,
		"SELECT hash, loaded_at, created_at FROM snapshots ORDER BY created_at DESC, hash",
	); err != nil {
		return nil, fmt.Errorf("could not list snapshots: %w", err)
	}
	metas := make([]SnapshotMeta, 0, len(rows))
	for _, r := range rows {
		metas = append(metas, SnapshotMeta{
			Hash:      r.Hash,
			LoadedAt:  textToTime(r.LoadedAt),
			CreatedAt: textToTime(r.CreatedAt),
		})
	}
	return metas, nil
}

// Prune deletes all but the keep newest snapshots.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.ExecContext(ctx, `
		DELETE FROM snapshots WHERE hash NOT IN (
			SELECT hash FROM snapshots ORDER BY created_at DESC, hash LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("could not prune snapshots: %w", err)
	}
	return s.pruneOrphans(ctx)
}

// Wipe removes every snapshot.
func (s *Store) Wipe(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("could not wipe snapshots: %w", err)
	}
	return s.pruneOrphans(ctx)
}

// pruneOrphans clears row tables for snapshots that no longer exist.
// Foreign-key cascades cover this when the pragma is on; doing it explicitly
// keeps Wipe and Prune correct regardless of the connection settings.
func (s *Store) pruneOrphans(ctx context.Context) error {
	for _, table := range []string{"snapshot_feeds", "sales", "presales", "clients", "rejections"} {
		if _, err := s.ExecContext(ctx, fmt.Sprintf(
			"DELETE FROM %s WHERE snapshot_hash NOT IN (SELECT hash FROM snapshots)", table,
		)); err != nil {
			return fmt.Errorf("could not prune %s: %w", table, err)
		}
	}
	return nil
}

// hashColumn names the snapshot hash column for a table.
func hashColumn(table string) string {
	if table == "snapshots" {
		return "hash"
	}
	return "snapshot_hash"
}

// namedInsert batch-inserts rows with a named statement, chunked to respect
// SQLite's bound-variable limit. An empty slice is a no-op.
func namedInsert[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertChunk {
		end := start + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
