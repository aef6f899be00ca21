package export

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

// Writer is implemented by every sink in this package and by the SQL repository sink.
type Writer interface {
	Write(ctx context.Context, rs *entity.ResultSet) error
}

// MultiSink writes to each sink in order and stops at the first failure.
type MultiSink []Writer

func (m MultiSink) Write(ctx context.Context, rs *entity.ResultSet) error {
	for i, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, rs); err != nil {
			return fmt.Errorf("sink %d (%T): %w", i, s, err)
		}
	}
	return nil
}
