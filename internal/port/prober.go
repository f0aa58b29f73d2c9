package port

import (
	"context"

	"github.com/calibancode/gifforge/internal/domain"
)

type Prober interface {
	Probe(ctx context.Context, path string) (*domain.SourceMedia, error)
}

// ProbeCache persists probe results keyed by source fingerprint so repeated
// selections of the same unchanged file skip the subprocess.
type ProbeCache interface {
	Get(fingerprint string) (*domain.SourceMedia, bool)
	Put(media *domain.SourceMedia) error
}
