package exporter

// ExporterBuilderOption is a functional option for configuring an Exporter via NewExporter.
type ExporterBuilderOption func(*exporter)

// WithWorkers sets the number of workers writing async exports.
//
// Parameters:
//   - n: the worker count (default 2)
//
// Returns:
//   - ExporterBuilderOption: a function that applies the workers option to an exporter
func WithWorkers(n int) ExporterBuilderOption {
	return func(e *exporter) {
		e.workers = n
	}
}

// WithCompressionLevel sets the compression level for formats that support it (PNG, TIFF).
// Zero disables compression; values are clamped to [0,9].
//
// Parameters:
//   - level: the compression level
//
// Returns:
//   - ExporterBuilderOption: a function that applies the compression option to an exporter
func WithCompressionLevel(level int) ExporterBuilderOption {
	return func(e *exporter) {
		e.compressionLevel = level
	}
}
