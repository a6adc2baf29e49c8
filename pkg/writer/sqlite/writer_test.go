package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

func decodeFloat64s(t *testing.T, blob []byte) []float64 {
	t.Helper()
	if len(blob)%8 != 0 {
		t.Fatalf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "envelopes.db")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.SetDescription("unit test")

	peptide := &core.Spectrum{
		Formula:          "C34H53N7O15",
		Sequence:         "PEPTIDE",
		Modifications:    []core.Modification{{Name: "Acetyl", Position: -1}},
		Charge:           2,
		MonoisotopicMass: 799.3599,
		Resolution:       0.01,
		Normalization:    core.NormalizeBasePeak,
		Peaks: []core.Peak{
			{Mass: 401.1924, Intensity: 0.5},
			{Mass: 400.6907, Intensity: 1.0},
		},
	}
	small := &core.Spectrum{
		ID:               "water",
		Formula:          "H2O",
		MonoisotopicMass: 18.0106,
		Resolution:       0.01,
		Peaks:            []core.Peak{{Mass: 18.0106, Intensity: 1}},
	}

	for _, spec := range []*core.Spectrum{peptide, small} {
		if err := w.WriteSpectrum(spec); err != nil {
			t.Fatalf("WriteSpectrum() error = %v", err)
		}
	}
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.WriteSpectrum(small); err == nil {
		t.Error("WriteSpectrum() after Close should fail")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	var name, formula, tag, sequence string
	var mono float64
	err = db.QueryRow(`SELECT Name, Formula, Tag, Sequence, MonoisotopicMass FROM CompoundTable WHERE CompoundId = 1`).
		Scan(&name, &formula, &tag, &sequence, &mono)
	if err != nil {
		t.Fatalf("query compound: %v", err)
	}
	if name != "PEPTIDE/2" || formula != "C34H53N7O15" || tag != "mods:Acetyl@-1" || sequence != "PEPTIDE" {
		t.Errorf("compound row = %q %q %q %q", name, formula, tag, sequence)
	}

	var (
		charge, peakCount   int
		precursor           sql.NullFloat64
		neutral, resolution float64
		normalization       string
		massBlob, intBlob   []byte
	)
	err = db.QueryRow(`SELECT Charge, PrecursorMass, NeutralMass, Normalization, Resolution, PeakCount, blobMass, blobIntensity
		FROM SpectrumTable WHERE SpectrumId = 1`).
		Scan(&charge, &precursor, &neutral, &normalization, &resolution, &peakCount, &massBlob, &intBlob)
	if err != nil {
		t.Fatalf("query spectrum: %v", err)
	}

	if charge != 2 || peakCount != 2 || normalization != "basepeak" || resolution != 0.01 {
		t.Errorf("spectrum row charge=%d peaks=%d norm=%s res=%g", charge, peakCount, normalization, resolution)
	}
	wantPrecursor := (799.3599 + 2*core.ProtonMass) / 2
	if !precursor.Valid || math.Abs(precursor.Float64-wantPrecursor) > 1e-9 {
		t.Errorf("PrecursorMass = %v, want %v", precursor, wantPrecursor)
	}

	masses := decodeFloat64s(t, massBlob)
	intensities := decodeFloat64s(t, intBlob)
	if len(masses) != 2 || masses[0] != 400.6907 || masses[1] != 401.1924 {
		t.Errorf("masses = %v, want sorted", masses)
	}
	if len(intensities) != 2 || intensities[0] != 1.0 || intensities[1] != 0.5 {
		t.Errorf("intensities = %v", intensities)
	}

	err = db.QueryRow(`SELECT PrecursorMass FROM SpectrumTable WHERE SpectrumId = 2`).Scan(&precursor)
	if err != nil {
		t.Fatalf("query neutral spectrum: %v", err)
	}
	if precursor.Valid {
		t.Errorf("neutral spectrum PrecursorMass = %v, want NULL", precursor.Float64)
	}

	var version, modified int
	var description string
	if err := db.QueryRow(`SELECT version, Description FROM HeaderTable`).Scan(&version, &description); err != nil {
		t.Fatalf("query header: %v", err)
	}
	if version != schemaVersion || description != "unit test" {
		t.Errorf("header = %d %q", version, description)
	}
	if err := db.QueryRow(`SELECT NoofCompoundsModified FROM MaintenanceTable`).Scan(&modified); err != nil {
		t.Fatalf("query maintenance: %v", err)
	}
	if modified != 2 {
		t.Errorf("NoofCompoundsModified = %d, want 2", modified)
	}
}

func TestEncodeFloat64s(t *testing.T) {
	values := decodeFloat64s(t, encodeFloat64s([]float64{1.5, -2.25, 1e-300}))
	if len(values) != 3 || values[0] != 1.5 || values[1] != -2.25 || values[2] != 1e-300 {
		t.Errorf("values = %v", values)
	}
	if len(encodeFloat64s(nil)) != 0 {
		t.Error("no values should encode to an empty blob")
	}
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestWriterChunksAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.SetChunkSize(2)

	spec := &core.Spectrum{Formula: "CH4", MonoisotopicMass: 16.0313, Peaks: []core.Peak{{Mass: 16.0313, Intensity: 1}}}
	for i := 0; i < 3; i++ {
		if err := w.WriteSpectrum(spec); err != nil {
			t.Fatalf("WriteSpectrum() error = %v", err)
		}
	}

	// The first chunk of two is committed, the third row is pending.
	if got := countRows(t, path, "SpectrumTable"); got != 2 {
		t.Errorf("committed spectra = %d, want 2", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := countRows(t, path, "SpectrumTable"); got != 3 {
		t.Errorf("spectra after Close = %d, want 3", got)
	}

	w, err = NewWriter(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if w.Count() != 3 {
		t.Errorf("Count() after reopen = %d, want 3", w.Count())
	}
	if err := w.WriteSpectrum(spec); err != nil {
		t.Fatalf("WriteSpectrum() after reopen error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := countRows(t, path, "CompoundTable"); got != 4 {
		t.Errorf("compounds = %d, want 4", got)
	}
	if got := countRows(t, path, "MaintenanceTable"); got != 2 {
		t.Errorf("maintenance rows = %d, want 2", got)
	}
	if got := countRows(t, path, "HeaderTable"); got != 1 {
		t.Errorf("header rows = %d, want 1", got)
	}
}

func TestWriterAppendKeepsSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.db")
	spec := &core.Spectrum{Formula: "CH4", MonoisotopicMass: 16.0313, Peaks: []core.Peak{{Mass: 16.0313, Intensity: 1}}}

	for _, description := range []string{"first run", "", "third run"} {
		w, err := NewWriter(path)
		if err != nil {
			t.Fatalf("NewWriter() error = %v", err)
		}
		w.SetDescription(description)
		if err := w.WriteSpectrum(spec); err != nil {
			t.Fatalf("WriteSpectrum() error = %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	if got := countRows(t, path, "HeaderTable"); got != 1 {
		t.Fatalf("header rows = %d, want 1", got)
	}
	if got := countRows(t, path, "MaintenanceTable"); got != 3 {
		t.Errorf("maintenance rows = %d, want 3", got)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	var created, modified, description string
	if err := db.QueryRow(`SELECT CreationDate, LastModifiedDate, Description FROM HeaderTable`).Scan(&created, &modified, &description); err != nil {
		t.Fatalf("query header: %v", err)
	}
	if description != "third run" {
		t.Errorf("Description = %q, want %q", description, "third run")
	}
	if created == "" || modified < created {
		t.Errorf("CreationDate = %q, LastModifiedDate = %q", created, modified)
	}
}

// occupySpectrumID inserts a bare SpectrumTable row so that a later insert
// with the same id fails after its compound row was written.
func occupySpectrumID(t *testing.T, path string, id int) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO SpectrumTable (SpectrumId) VALUES (?)`, id); err != nil {
		t.Fatalf("occupy spectrum id %d: %v", id, err)
	}
}

func TestWriterRollsBackChunkOnFailedInsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.db")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.SetChunkSize(2)
	w.SetDescription("failed run")
	occupySpectrumID(t, path, 4)

	spec := &core.Spectrum{Formula: "CH4", MonoisotopicMass: 16.0313, Peaks: []core.Peak{{Mass: 16.0313, Intensity: 1}}}
	for i := 0; i < 3; i++ {
		if err := w.WriteSpectrum(spec); err != nil {
			t.Fatalf("WriteSpectrum() #%d error = %v", i+1, err)
		}
	}
	if err := w.WriteSpectrum(spec); err == nil {
		t.Fatal("expected WriteSpectrum() to fail on a taken spectrum id")
	}

	// The first chunk was committed; the third spectrum shared the failed chunk.
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}
	if err := w.WriteSpectrum(spec); err == nil {
		t.Error("WriteSpectrum() after a failed insert should fail")
	}
	if err := w.Close(); err == nil {
		t.Error("Close() after a failed insert should report the failure")
	}

	if got := countRows(t, path, "CompoundTable"); got != 2 {
		t.Errorf("compounds = %d, want 2 (no orphan rows)", got)
	}
	if got := countRows(t, path, "SpectrumTable"); got != 3 {
		t.Errorf("spectra = %d, want 3", got)
	}
	if got := countRows(t, path, "HeaderTable"); got != 0 {
		t.Errorf("header rows = %d, want 0", got)
	}
	if got := countRows(t, path, "MaintenanceTable"); got != 0 {
		t.Errorf("maintenance rows = %d, want 0", got)
	}
}
