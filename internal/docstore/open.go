package docstore

import (
	"fmt"

	"admissions-intake/internal/common/config"
)

// Open selects and opens the configured document store driver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "elasticsearch":
		return NewElasticsearchStore(cfg.Database.Elasticsearch)
	case "postgres":
		return OpenPostgresStore(cfg.Database.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
