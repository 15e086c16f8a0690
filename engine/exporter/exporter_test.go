package exporter

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
	"golang.org/x/image/tiff"
)

func rgb8(t *testing.T) texdata.TexData {
	t.Helper()
	// 2x2, top row red/green, bottom row blue/white
	d, err := texdata.NewTexData(2, 2, 3, texdata.TypeUint8, []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	}, "R", "G", "B")
	if err != nil {
		t.Fatalf("NewTexData() error = %v", err)
	}
	return d
}

func readFile(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", name, err)
	}
	return b
}

func TestFormatFromName(t *testing.T) {
	tests := map[string]Format{
		"a.raw":     FormatRAW,
		"a.csv":     FormatCSV,
		"a.pgm":     FormatPNM,
		"a.ppm":     FormatPNM,
		"dir/a.PNG": FormatPNG,
		"a.pfs":     FormatPFS,
		"a.tif":     FormatTIFF,
		"a.tiff":    FormatTIFF,
		"a.gta":     FormatAuto,
		"a":         FormatAuto,
	}
	for name, want := range tests {
		if got := FormatFromName(name); got != want {
			t.Errorf("FormatFromName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	f32, _ := texdata.FromFloat32(1, 1, 2, []float32{1, 2})
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no data", Request{FileName: filepath.Join(dir, "a.raw")}, ErrNoData},
		{"invalid data", Request{FileName: filepath.Join(dir, "a.raw"), Data: []texdata.TexData{{}}}, ErrNoData},
		{"unknown extension", Request{FileName: filepath.Join(dir, "a.xyz"), Data: []texdata.TexData{f32}}, ErrUnsupportedFormat},
		{"channel list count", Request{FileName: filepath.Join(dir, "a.raw"), Data: []texdata.TexData{f32}, Channels: [][]int{{0}, {1}}}, ErrInvalidChannel},
		{"channel out of range", Request{FileName: filepath.Join(dir, "a.raw"), Data: []texdata.TexData{f32}, Channels: [][]int{{2}}}, ErrInvalidChannel},
		{"png needs uint8", Request{FileName: filepath.Join(dir, "a.png"), Data: []texdata.TexData{f32}, Channels: [][]int{{0}}}, ErrIncompatibleFormat},
		{"pnm needs 1 or 3 channels", Request{FileName: filepath.Join(dir, "a.ppm"), Data: []texdata.TexData{rgb8(t)}, Channels: [][]int{{0, 1}}}, ErrIncompatibleFormat},
		{"png single image", Request{FileName: filepath.Join(dir, "a.png"), Data: []texdata.TexData{rgb8(t), rgb8(t)}}, ErrIncompatibleFormat},
		{"tiff single image", Request{FileName: filepath.Join(dir, "a.tif"), Data: []texdata.TexData{rgb8(t), rgb8(t)}}, ErrIncompatibleFormat},
	}
	e := NewExporter()
	defer e.Close()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.ExportRequest(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("ExportRequest() error = %v, want %v", err, tt.want)
			}
		})
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("rejected exports created %d files", len(entries))
	}
}

func TestRAWAppendsWithHeader(t *testing.T) {
	name := filepath.Join(t.TempDir(), "frames.raw")
	d, _ := texdata.FromUint32(2, 1, 2, []uint32{1, 2, 3, 4}, "a")
	e := NewExporter()
	defer e.Close()

	if err := e.Export(name, d); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := e.ExportRequest(Request{FileName: name, Data: []texdata.TexData{d}, Channels: [][]int{{1}}}); err != nil {
		t.Fatalf("ExportRequest() error = %v", err)
	}

	raw := readFile(t, name)
	if len(raw) != 16+8 {
		t.Errorf("len(raw) = %d, want 24", len(raw))
	}
	if !bytes.Equal(raw[16:], []byte{2, 0, 0, 0, 4, 0, 0, 0}) {
		t.Errorf("selected channel bytes = %v, want [2 0 0 0 4 0 0 0]", raw[16:])
	}
	wantHeader := "dimensions: 2 1\ncomponents: uint32 uint32\ncomponent names: a unnamed\n" +
		"dimensions: 2 1\ncomponents: uint32\ncomponent names: unnamed\n"
	if got := string(readFile(t, name+"_header")); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}
}

func TestCSV(t *testing.T) {
	name := filepath.Join(t.TempDir(), "depth.csv")
	d, _ := texdata.FromFloat32(2, 2, 1, []float32{0.5, 1, 2, 0.125})
	e := NewExporter()
	defer e.Close()

	for i := 0; i < 2; i++ {
		if err := e.Export(name, d); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
	}
	want := "0.5,1\n2,0.125\n\n"
	if got := string(readFile(t, name)); got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}

func TestPNM(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter()
	defer e.Close()

	ppm := filepath.Join(dir, "a.ppm")
	if err := e.Export(ppm, rgb8(t)); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := append([]byte("P6\n2 2\n255\n"), rgb8(t).PackedData()...)
	if got := readFile(t, ppm); !bytes.Equal(got, want) {
		t.Errorf("ppm = %v, want %v", got, want)
	}

	pgm := filepath.Join(dir, "a.pgm")
	if err := e.ExportRequest(Request{FileName: pgm, Data: []texdata.TexData{rgb8(t)}, Channels: [][]int{{1}}}); err != nil {
		t.Fatalf("ExportRequest() error = %v", err)
	}
	want = append([]byte("P5\n2 2\n255\n"), 0, 255, 0, 255)
	if got := readFile(t, pgm); !bytes.Equal(got, want) {
		t.Errorf("pgm = %v, want %v", got, want)
	}
}

func TestImageFormats(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(WithCompressionLevel(6))
	defer e.Close()

	want := [2][2][3]uint32{
		{{255, 0, 0}, {0, 255, 0}},
		{{0, 0, 255}, {255, 255, 255}},
	}
	for _, ext := range []string{".png", ".tif"} {
		t.Run(ext, func(t *testing.T) {
			name := filepath.Join(dir, "img"+ext)
			if err := e.Export(name, rgb8(t)); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			f, err := os.Open(name)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer f.Close()
			decode := png.Decode
			if ext == ".tif" {
				decode = tiff.Decode
			}
			img, err := decode(f)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					got := [3]uint32{r >> 8, g >> 8, b >> 8}
					if got != want[y][x] {
						t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want[y][x])
					}
				}
			}
		})
	}
}

func TestPFS(t *testing.T) {
	name := filepath.Join(t.TempDir(), "a.pfs")
	d, _ := texdata.FromFloat32(2, 1, 2, []float32{1, 2, 3, 4}, "X")
	e := NewExporter()
	defer e.Close()

	if err := e.Export(name, d); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got := readFile(t, name)
	header := "PFS1\n2 1\n2\n0\nX\n0\nCAMSIM-1\n0\nENDH"
	if !strings.HasPrefix(string(got), header) {
		t.Fatalf("pfs header = %q, want prefix %q", got[:min(len(got), len(header))], header)
	}
	if len(got) != len(header)+2*2*4 {
		t.Errorf("len(pfs) = %d, want %d", len(got), len(header)+16)
	}
}

func TestAsyncExport(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(WithWorkers(2))
	defer e.Close()

	d := rgb8(t)
	name := filepath.Join(dir, "async.ppm")
	if err := e.AsyncExport(name, d); err != nil {
		t.Fatalf("AsyncExport() error = %v", err)
	}
	if err := e.AsyncExport(name, d); !errors.Is(err, ErrDuplicateAsyncExport) {
		t.Errorf("second AsyncExport() error = %v, want %v", err, ErrDuplicateAsyncExport)
	}
	other := filepath.Join(dir, "other.pgm")
	if err := e.AsyncExportRequest(Request{FileName: other, Data: []texdata.TexData{d}, Channels: [][]int{{0}}}); err != nil {
		t.Fatalf("AsyncExportRequest() error = %v", err)
	}
	// the queued export owns a copy
	d.PackedData()[0] = 7

	if err := e.WaitForAsyncExports(); err != nil {
		t.Fatalf("WaitForAsyncExports() error = %v", err)
	}
	if got := readFile(t, name); got[len("P6\n2 2\n255\n")] != 255 {
		t.Errorf("first byte = %d, want 255", got[len("P6\n2 2\n255\n")])
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("Stat(other) error = %v", err)
	}
	if err := e.AsyncExport(name, d); err != nil {
		t.Errorf("AsyncExport() after wait error = %v", err)
	}
	if err := e.WaitForAsyncExports(); err != nil {
		t.Errorf("WaitForAsyncExports() error = %v", err)
	}
}

func TestAsyncExportReportsWriteErrors(t *testing.T) {
	e := NewExporter()
	defer e.Close()
	name := filepath.Join(t.TempDir(), "missing", "a.ppm")
	if err := e.AsyncExport(name, rgb8(t)); err != nil {
		t.Fatalf("AsyncExport() error = %v", err)
	}
	if err := e.WaitForAsyncExports(); err == nil {
		t.Error("WaitForAsyncExports() error = nil, want open error")
	}
}
