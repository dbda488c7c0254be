package mapping

import (
	"context"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/gcp"
)

// NewStore selects the mapping backend from the environment: a local bbolt
// file when MAPPING_DB_PATH is set, otherwise Firestore in the configured
// project.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if path := config.GetEnv("MAPPING_DB_PATH", ""); path != "" {
		return OpenBoltStore(path)
	}
	client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	return NewFirestoreStore(client, cfg.MappingCollection), nil
}
