package dataset

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// EncodeParquet renders each table as one parquet file keyed by table name.
// Empty tables are skipped.
func EncodeParquet(ds Dataset) (map[string][]byte, error) {
	files := make(map[string][]byte, 5)
	encoders := []struct {
		name   string
		encode func() ([]byte, error)
		empty  bool
	}{
		{name: TableHistorical, encode: func() ([]byte, error) { return encodeRows(ds.Historical) }, empty: len(ds.Historical) == 0},
		{name: TableProductInfo, encode: func() ([]byte, error) { return encodeRows(ds.ProductInfo) }, empty: len(ds.ProductInfo) == 0},
		{name: TableForecast, encode: func() ([]byte, error) { return encodeRows(ds.Forecast) }, empty: len(ds.Forecast) == 0},
		{name: TableInventory, encode: func() ([]byte, error) { return encodeRows(ds.Inventory) }, empty: len(ds.Inventory) == 0},
		{name: TableCompetitor, encode: func() ([]byte, error) { return encodeRows(ds.Competitor) }, empty: len(ds.Competitor) == 0},
	}
	for _, encoder := range encoders {
		if encoder.empty {
			continue
		}
		data, err := encoder.encode()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", encoder.name, err)
		}
		files[encoder.name] = data
	}
	return files, nil
}

func encodeRows[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
