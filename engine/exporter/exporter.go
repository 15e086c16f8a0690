// Package exporter writes simulator output buffers to image and data files.
package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
)

var (
	// ErrNoData is returned when there is nothing to export or a buffer is invalid.
	ErrNoData = errors.New("no data to export")
	// ErrUnsupportedFormat is returned when the format cannot be detected from the file name.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrIncompatibleFormat is returned when the format cannot store the data.
	ErrIncompatibleFormat = errors.New("file format is not compatible with data")
	// ErrDuplicateAsyncExport is returned when a file already has a pending async export.
	ErrDuplicateAsyncExport = errors.New("cannot have more than one async export per file")
	// ErrInvalidChannel is returned for channel lists that do not match the data.
	ErrInvalidChannel = errors.New("invalid channel list")
)

// Format identifies an output file format.
type Format int

const (
	// FormatAuto detects the format from the file name extension.
	FormatAuto Format = iota
	// FormatRAW writes the packed element data and appends a description to a "_header" companion file.
	FormatRAW
	// FormatCSV writes one comma-separated block per channel.
	FormatCSV
	// FormatPNM writes binary PGM or PPM images; 8-bit data with 1 or 3 channels only.
	FormatPNM
	// FormatPNG writes a single 8-bit image with 1 or 3 channels.
	FormatPNG
	// FormatPFS writes pfstools frames with float channels.
	FormatPFS
	// FormatTIFF writes a single 8-bit image with 1 or 3 channels.
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatRAW:
		return "raw"
	case FormatCSV:
		return "csv"
	case FormatPNM:
		return "pnm"
	case FormatPNG:
		return "png"
	case FormatPFS:
		return "pfs"
	case FormatTIFF:
		return "tiff"
	}
	return "auto"
}

// FormatFromName detects the format from a file name extension.
//
// Parameters:
//   - fileName: the output file name
//
// Returns:
//   - Format: the detected format, or FormatAuto if the extension is unknown
func FormatFromName(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".raw":
		return FormatRAW
	case ".csv":
		return FormatCSV
	case ".pgm", ".ppm":
		return FormatPNM
	case ".png":
		return FormatPNG
	case ".pfs":
		return FormatPFS
	case ".tif", ".tiff":
		return FormatTIFF
	}
	return FormatAuto
}

// Request describes one export. Channels selects, per data entry, which channels are written
// and in which order; a nil or empty list selects all channels.
type Request struct {
	FileName string
	Format   Format
	Data     []texdata.TexData
	Channels [][]int
}

// exporter is the implementation of the Exporter interface.
type exporter struct {
	mu sync.Mutex

	compressionLevel int
	pool             worker.DynamicWorkerPool
	workers          int

	pending map[string]struct{}
	wg      sync.WaitGroup
	errs    []error
	nextID  int
}

// Exporter defines the public-facing interface for writing output buffers to files.
// RAW, PNM and PFS files are appended to, so several frames can be collected in one file;
// the other formats overwrite existing files.
type Exporter interface {
	// Export writes all channels of the data to a file whose format is detected from its name.
	//
	// Parameters:
	//   - fileName: the output file
	//   - data: one or more buffers
	//
	// Returns:
	//   - error: a validation sentinel error or the write error
	Export(fileName string, data ...texdata.TexData) error

	// ExportRequest writes a fully specified export request.
	//
	// Parameters:
	//   - req: the request
	//
	// Returns:
	//   - error: a validation sentinel error or the write error
	ExportRequest(req Request) error

	// AsyncExport validates the request and queues the write on the worker pool. The data is
	// copied, so the caller may reuse its buffers immediately.
	//
	// Parameters:
	//   - fileName: the output file
	//   - data: one or more buffers
	//
	// Returns:
	//   - error: a validation sentinel error; write errors are reported by WaitForAsyncExports
	AsyncExport(fileName string, data ...texdata.TexData) error

	// AsyncExportRequest is the asynchronous variant of ExportRequest.
	//
	// Parameters:
	//   - req: the request
	//
	// Returns:
	//   - error: a validation sentinel error, including ErrDuplicateAsyncExport
	AsyncExportRequest(req Request) error

	// WaitForAsyncExports blocks until all queued exports are written and resets the set of
	// pending file names.
	//
	// Returns:
	//   - error: the joined write errors of all async exports since the last call
	WaitForAsyncExports() error

	// Close waits for pending exports and stops the worker pool.
	//
	// Returns:
	//   - error: same as WaitForAsyncExports
	Close() error
}

var _ Exporter = &exporter{}

// NewExporter creates a new Exporter with the given options applied.
//
// Parameters:
//   - options: a variadic list of ExporterBuilderOption functions to configure the Exporter
//
// Returns:
//   - Exporter: the exporter
func NewExporter(options ...ExporterBuilderOption) Exporter {
	e := &exporter{
		workers: 2,
		pending: make(map[string]struct{}),
	}
	for _, option := range options {
		option(e)
	}
	e.compressionLevel = common.Clamp(e.compressionLevel, 0, 9)
	e.pool = worker.NewDynamicWorkerPool(max(e.workers, 1), 64, 1*time.Second)
	return e
}

func (e *exporter) Export(fileName string, data ...texdata.TexData) error {
	return e.ExportRequest(Request{FileName: fileName, Data: data})
}

func (e *exporter) ExportRequest(req Request) error {
	job, err := e.check(req)
	if err != nil {
		return err
	}
	return job.write()
}

func (e *exporter) AsyncExport(fileName string, data ...texdata.TexData) error {
	return e.AsyncExportRequest(Request{FileName: fileName, Data: data})
}

func (e *exporter) AsyncExportRequest(req Request) error {
	job, err := e.check(req)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if _, ok := e.pending[req.FileName]; ok {
		e.mu.Unlock()
		return fmt.Errorf("%s: %w", req.FileName, ErrDuplicateAsyncExport)
	}
	e.pending[req.FileName] = struct{}{}
	id := e.nextID
	e.nextID++
	e.mu.Unlock()

	for i, d := range job.data {
		job.data[i] = cloneTexData(d)
	}

	e.wg.Add(1)
	e.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer e.wg.Done()
			err := job.write()
			if err != nil {
				e.mu.Lock()
				e.errs = append(e.errs, err)
				e.mu.Unlock()
			}
			return nil, err
		},
	})
	return nil
}

func (e *exporter) WaitForAsyncExports() error {
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	err := errors.Join(e.errs...)
	e.errs = nil
	clear(e.pending)
	return err
}

func (e *exporter) Close() error {
	err := e.WaitForAsyncExports()
	e.pool.Stop()
	return err
}

// exportJob is a validated request with the format resolved and channel lists filled in.
type exportJob struct {
	fileName         string
	format           Format
	data             []texdata.TexData
	channels         [][]int
	compressionLevel int
}

// check validates a request in the order a caller would fix the problems: data, format,
// channel lists, then format compatibility.
func (e *exporter) check(req Request) (*exportJob, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%s: %w", req.FileName, ErrNoData)
	}
	for _, d := range req.Data {
		if !d.IsValid() {
			return nil, fmt.Errorf("%s: %w", req.FileName, ErrNoData)
		}
	}

	format := req.Format
	if format == FormatAuto {
		format = FormatFromName(req.FileName)
	}
	if format == FormatAuto {
		return nil, fmt.Errorf("%s: cannot detect file format from name: %w", req.FileName, ErrUnsupportedFormat)
	}

	if len(req.Channels) != 0 && len(req.Channels) != len(req.Data) {
		return nil, fmt.Errorf("%s: %d channel lists for %d buffers: %w", req.FileName, len(req.Channels), len(req.Data), ErrInvalidChannel)
	}
	channels := make([][]int, len(req.Data))
	for i, d := range req.Data {
		if len(req.Channels) != 0 && len(req.Channels[i]) != 0 {
			for _, c := range req.Channels[i] {
				if c < 0 || c >= d.Channels() {
					return nil, fmt.Errorf("%s: channel %d of a %d-channel buffer: %w", req.FileName, c, d.Channels(), ErrInvalidChannel)
				}
			}
			channels[i] = append([]int(nil), req.Channels[i]...)
			continue
		}
		channels[i] = make([]int, d.Channels())
		for c := range channels[i] {
			channels[i][c] = c
		}
	}

	for i, d := range req.Data {
		if !compatible(format, d, len(channels[i])) || (i > 0 && singleImage(format)) {
			return nil, fmt.Errorf("%s: %v with %d channels as %v: %w", req.FileName, d.Type(), len(channels[i]), format, ErrIncompatibleFormat)
		}
	}

	return &exportJob{
		fileName:         req.FileName,
		format:           format,
		data:             append([]texdata.TexData(nil), req.Data...),
		channels:         channels,
		compressionLevel: e.compressionLevel,
	}, nil
}

func compatible(format Format, d texdata.TexData, channelCount int) bool {
	switch format {
	case FormatPNM, FormatPNG, FormatTIFF:
		return (channelCount == 1 || channelCount == 3) && d.Type() == texdata.TypeUint8
	}
	return true
}

func singleImage(format Format) bool {
	return format == FormatPNG || format == FormatTIFF
}

func (j *exportJob) write() error {
	common.Logger().Debug("exporting", "file", j.fileName, "format", j.format.String(), "buffers", len(j.data))
	var err error
	switch j.format {
	case FormatRAW:
		err = writeRAW(j)
	case FormatCSV:
		err = writeCSV(j)
	case FormatPNM:
		err = writePNM(j)
	case FormatPNG:
		err = writePNG(j)
	case FormatPFS:
		err = writePFS(j)
	case FormatTIFF:
		err = writeTIFF(j)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return fmt.Errorf("%s: %w", j.fileName, err)
	}
	return nil
}

func cloneTexData(d texdata.TexData) texdata.TexData {
	c, err := texdata.NewTexData(d.Width(), d.Height(), d.Channels(), d.Type(),
		append([]byte(nil), d.PackedData()...), d.ChannelNames()...)
	if err != nil {
		return d
	}
	return c
}
