package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
	"github.com/score-labs/score-backend/internal/infrastructure/extractor/pdf"
	"github.com/score-labs/score-backend/internal/infrastructure/extractor/plaintext"
	"github.com/score-labs/score-backend/internal/infrastructure/extractor/xlsx"
)

// Dispatcher routes extraction by file extension. An unsupported extension
// is an invalid-input failure for that file only; batches continue.
type Dispatcher struct {
	plaintext ports.TextExtractor
	pdf       ports.TextExtractor
	xlsx      ports.TextExtractor
}

func NewDispatcher(storage ports.ObjectStorage) *Dispatcher {
	return &Dispatcher{
		plaintext: plaintext.NewExtractor(storage),
		pdf:       pdf.NewExtractor(storage),
		xlsx:      xlsx.NewExtractor(storage),
	}
}

func (d *Dispatcher) Extract(ctx context.Context, storageKey, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return d.pdf.Extract(ctx, storageKey, filename)
	case ".xlsx", ".xlsm":
		return d.xlsx.Extract(ctx, storageKey, filename)
	case ".txt", ".md", ".markdown", "":
		return d.plaintext.Extract(ctx, storageKey, filename)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "extract",
			fmt.Errorf("unsupported file type: %s", filename))
	}
}
