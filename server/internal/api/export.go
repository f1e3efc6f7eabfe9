package api

import (
	"context"
	"errors"

	"github.com/ciops/alertdesk/pkg/types"
)

// ErrExportNotImplemented is returned by exporters that cannot produce a file.
var ErrExportNotImplemented = errors.New("export not implemented")

// Export formats accepted by GET /api/v1/export.
var exportFormats = map[string]bool{"csv": true, "xlsx": true}

// Exporter renders the filtered alert set as a downloadable file.
type Exporter interface {
	// Export returns the file body and its content type.
	Export(ctx context.Context, format string, alerts []types.Alert) ([]byte, string, error)
}

// UnimplementedExporter is the shipped Exporter. It validates nothing and
// always returns ErrExportNotImplemented.
type UnimplementedExporter struct{}

// Export implements Exporter.
func (UnimplementedExporter) Export(context.Context, string, []types.Alert) ([]byte, string, error) {
	return nil, "", ErrExportNotImplemented
}
