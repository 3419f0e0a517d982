package dataset

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/retailagent/retailagent/internal/storage"
)

const parquetContentType = "application/vnd.apache.parquet"

// Export uploads parquet files produced by EncodeParquet, one object per
// table, in table-name order.
func Export(ctx context.Context, store storage.ObjectStore, runID string, generatedAt time.Time, files map[string][]byte) ([]storage.ObjectInfo, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	uploaded := make([]storage.ObjectInfo, 0, len(names))
	for _, name := range names {
		key, err := storage.BuildExportPath(runID, name, generatedAt)
		if err != nil {
			return uploaded, err
		}
		data := files[name]
		info, err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: parquetContentType})
		if err != nil {
			return uploaded, fmt.Errorf("upload %s: %w", name, err)
		}
		uploaded = append(uploaded, info)
	}
	return uploaded, nil
}
