// Package sqlite stores computed isotope envelopes in a SQLite database.
//
// Each spectrum becomes one CompoundTable row (what was computed) and one
// SpectrumTable row (the envelope, with peak masses and intensities as
// little-endian float64 blobs). Inserts are grouped into transactions of
// ChunkSize spectra.
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for MaintenanceTable (space-separated)
	maintenanceDateFormat = "2006 01 02"

	schemaVersion = 1

	// DefaultChunkSize is the number of spectra per transaction.
	DefaultChunkSize = 1000
)

const schema = `
CREATE TABLE IF NOT EXISTS CompoundTable (
	CompoundId INTEGER PRIMARY KEY,
	Formula TEXT,
	Name TEXT,
	Tag TEXT,
	Sequence TEXT,
	MonoisotopicMass DOUBLE
);

CREATE TABLE IF NOT EXISTS SpectrumTable (
	SpectrumId INTEGER PRIMARY KEY,
	CompoundId INTEGER REFERENCES CompoundTable(CompoundId),
	Charge INTEGER,
	PrecursorMass DOUBLE,
	NeutralMass DOUBLE,
	Normalization TEXT,
	Resolution DOUBLE,
	PeakCount INTEGER,
	blobMass BLOB,
	blobIntensity BLOB,
	CreationDate TEXT
);

CREATE TABLE IF NOT EXISTS HeaderTable (
	version INTEGER NOT NULL DEFAULT 0,
	CreationDate TEXT,
	LastModifiedDate TEXT,
	Description TEXT
);

CREATE TABLE IF NOT EXISTS MaintenanceTable (
	CreationDate TEXT,
	NoofCompoundsModified INTEGER,
	Description TEXT
);
`

const (
	insertCompound = `INSERT INTO CompoundTable (CompoundId, Formula, Name, Tag, Sequence, MonoisotopicMass)
VALUES (?, ?, ?, ?, ?, ?)`

	insertSpectrum = `INSERT INTO SpectrumTable (SpectrumId, CompoundId, Charge, PrecursorMass, NeutralMass,
	Normalization, Resolution, PeakCount, blobMass, blobIntensity, CreationDate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Writer streams spectra into a SQLite database. It is not safe for
// concurrent use.
type Writer struct {
	db          *sql.DB
	path        string
	description string
	chunkSize   int

	tx       *sql.Tx
	compound *sql.Stmt
	spectrum *sql.Stmt
	pending  int

	existing int // Spectra already in the database when opened
	written  int
	failed   error
	closed   bool
}

// NewWriter creates the database at path, or appends to an existing one
// created by this package.
func NewWriter(path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	var last sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(CompoundId) FROM CompoundTable`).Scan(&last); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read compound ids: %w", err)
	}

	return &Writer{
		db:        db,
		path:      path,
		chunkSize: DefaultChunkSize,
		existing:  int(last.Int64),
		written:   int(last.Int64),
	}, nil
}

// SetDescription sets the library description stored in HeaderTable
func (w *Writer) SetDescription(description string) {
	w.description = description
}

// SetChunkSize sets how many spectra are committed per transaction.
func (w *Writer) SetChunkSize(n int) {
	if n > 0 {
		w.chunkSize = n
	}
}

// Count returns the number of spectra in the database, including rows
// written before this writer was opened.
func (w *Writer) Count() int {
	return w.written
}

func (w *Writer) begin() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	compound, err := tx.Prepare(insertCompound)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare compound statement: %w", err)
	}
	spectrum, err := tx.Prepare(insertSpectrum)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.tx, w.compound, w.spectrum = tx, compound, spectrum
	return nil
}

// rollback discards the open chunk after a failed insert. Later writes
// and Finalize report err.
func (w *Writer) rollback(err error) error {
	if w.tx != nil {
		w.tx.Rollback()
	}
	w.written -= w.pending
	w.tx, w.compound, w.spectrum, w.pending = nil, nil, nil, 0
	w.failed = err
	return err
}

func (w *Writer) commit() error {
	if w.tx == nil {
		return nil
	}
	if err := w.tx.Commit(); err != nil {
		return w.rollback(fmt.Errorf("failed to commit: %w", err))
	}
	w.tx, w.compound, w.spectrum, w.pending = nil, nil, nil, 0
	return nil
}

// WriteSpectrum inserts one spectrum. Rows become visible to other
// connections when their chunk is committed or the writer is closed. A
// failed insert rolls back the uncommitted chunk and poisons the writer.
func (w *Writer) WriteSpectrum(spec *core.Spectrum) error {
	if w.closed {
		return fmt.Errorf("writer for %s is closed", w.path)
	}
	if w.failed != nil {
		return fmt.Errorf("writer for %s failed earlier: %w", w.path, w.failed)
	}
	if w.tx == nil {
		if err := w.begin(); err != nil {
			return err
		}
	}

	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}

	id := w.written + 1

	var tag string
	if mods := spec.ModString(); mods != "" {
		tag = "mods:" + mods
	}
	if _, err := w.compound.Exec(id, spec.Formula, spec.Name(), tag, spec.Sequence, spec.MonoisotopicMass); err != nil {
		return w.rollback(fmt.Errorf("failed to insert compound %s: %w", spec.Name(), err))
	}

	// Charged envelopes record the monoisotopic m/z as precursor
	var precursor any
	if spec.Charge > 0 {
		z := float64(spec.Charge)
		precursor = (spec.MonoisotopicMass + z*core.ProtonMass) / z
	}

	masses := make([]float64, len(spec.Peaks))
	intensities := make([]float64, len(spec.Peaks))
	for i, p := range spec.Peaks {
		masses[i], intensities[i] = p.Mass, p.Intensity
	}

	_, err := w.spectrum.Exec(
		id, id, // one spectrum per compound
		spec.Charge,
		precursor,
		spec.MonoisotopicMass,
		spec.Normalization.String(),
		spec.Resolution,
		len(spec.Peaks),
		encodeFloat64s(masses),
		encodeFloat64s(intensities),
		time.Now().Format(headerDateFormat),
	)
	if err != nil {
		return w.rollback(fmt.Errorf("failed to insert spectrum %s: %w", spec.Name(), err))
	}

	w.written++
	w.pending++
	if w.pending >= w.chunkSize {
		return w.commit()
	}
	return nil
}

// encodeFloat64s packs values as a little-endian float64 blob
func encodeFloat64s(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// Finalize commits outstanding spectra, records the header and maintenance
// rows and closes the database. An existing HeaderTable row only has its
// LastModifiedDate (and Description, when set) updated. After a failed
// write nothing more is committed and the write error is returned.
// Further calls return nil.
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.db.Close()

	if w.failed != nil {
		return fmt.Errorf("database %s not finalized: %w", w.path, w.failed)
	}

	if err := w.commit(); err != nil {
		return err
	}

	now := time.Now()
	if err := w.writeHeader(now); err != nil {
		return err
	}

	if _, err := w.db.Exec(`INSERT INTO MaintenanceTable (CreationDate, NoofCompoundsModified, Description) VALUES (?, ?, ?)`,
		now.Format(maintenanceDateFormat), w.written-w.existing, w.description); err != nil {
		return fmt.Errorf("failed to insert maintenance: %w", err)
	}

	return nil
}

func (w *Writer) writeHeader(now time.Time) error {
	date := now.Format(headerDateFormat)

	res, err := w.db.Exec(`UPDATE HeaderTable SET LastModifiedDate = ?, Description = COALESCE(NULLIF(?, ''), Description)`,
		date, w.description)
	if err != nil {
		return fmt.Errorf("failed to update header: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update header: %w", err)
	}
	if updated > 0 {
		return nil
	}

	if _, err := w.db.Exec(`INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description) VALUES (?, ?, ?, ?)`,
		schemaVersion, date, date, w.description); err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}
	return nil
}

// Close finalizes the database
func (w *Writer) Close() error {
	return w.Finalize()
}
