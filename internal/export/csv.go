package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/tablegest/internal/tables"
)

// WriteCSV writes the header row (omitted when headers are empty) followed
// by the data rows, nil cells as empty fields.
func WriteCSV(w io.Writer, t tables.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Grid()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CSVName is the archive entry name of t.
func CSVName(t tables.Table) string {
	return fmt.Sprintf("page_%d_table_%d.csv", t.Page, t.TableIndex)
}

// WriteZIP writes one deflated CSV per table.
func WriteZIP(w io.Writer, ts []tables.Table) error {
	zw := zip.NewWriter(w)
	for _, t := range ts {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: CSVName(t), Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create %s: %w", CSVName(t), err)
		}
		if err := WriteCSV(f, t); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}
