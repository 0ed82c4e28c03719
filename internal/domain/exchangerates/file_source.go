package exchangerates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads quotes from a JSON file holding an array of Rate. It
// lets an operator pin quotes when no upstream provider is reachable.
type FileSource struct {
	Path string
}

func (f FileSource) FetchRates(ctx context.Context) ([]Rate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}

	var rates []Rate
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("failed to decode rates file %s: %w", f.Path, err)
	}
	return rates, nil
}
