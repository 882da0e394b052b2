package services

import (
	"context"
	"fmt"

	"salesadmin/application/ports"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

// deleteInChunks deletes paths in order, committing at most maxBatchOps
// deletes per batch. When everything fits in one batch the delete is
// atomic. A failure after the first commit is a partial batch failure.
func deleteInChunks(ctx context.Context, store ports.DocumentStore, paths []valueobjects.DocPath, maxBatchOps int) (int, error) {
	deleted := 0
	for start := 0; start < len(paths); start += maxBatchOps {
		end := start + maxBatchOps
		if end > len(paths) {
			end = len(paths)
		}

		batch := store.NewBatch()
		for _, p := range paths[start:end] {
			batch.Delete(p)
		}
		if err := batch.Commit(ctx); err != nil {
			if deleted == 0 {
				return 0, fmt.Errorf("failed to commit delete batch: %w", err)
			}
			return deleted, errors.NewPartialBatchFailureError(deleted, err)
		}
		deleted = end
	}
	return deleted, nil
}
