package exporter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
	"golang.org/x/image/tiff"
)

// fileWriter is a buffered file that reports the first write, flush or close error.
type fileWriter struct {
	f *os.File
	*bufio.Writer
}

func createFile(name string, appendTo bool) (*fileWriter, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendTo {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open for writing: %w", err)
	}
	return &fileWriter{f: f, Writer: bufio.NewWriter(f)}, nil
}

func (w *fileWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("write error: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

func defaultChannels(d texdata.TexData, channels []int) bool {
	if len(channels) != d.Channels() {
		return false
	}
	for i, c := range channels {
		if c != i {
			return false
		}
	}
	return true
}

func writeRAW(j *exportJob) error {
	file, err := createFile(j.fileName, true)
	if err != nil {
		return err
	}
	header, err := createFile(j.fileName+"_header", true)
	if err != nil {
		file.Close()
		return err
	}

	for i, d := range j.data {
		channels := j.channels[i]
		if defaultChannels(d, channels) {
			file.Write(d.PackedData())
		} else {
			for y := 0; y < d.Height(); y++ {
				for x := 0; x < d.Width(); x++ {
					for _, c := range channels {
						file.Write(d.Element(x, y, c))
					}
				}
			}
		}

		types := make([]string, len(channels))
		names := make([]string, len(channels))
		for k, c := range channels {
			types[k] = d.Type().String()
			names[k] = d.ChannelName(c)
			if names[k] == "" {
				names[k] = "unnamed"
			}
		}
		fmt.Fprintf(header, "dimensions: %d %d\n", d.Width(), d.Height())
		fmt.Fprintf(header, "components: %s\n", strings.Join(types, " "))
		fmt.Fprintf(header, "component names: %s\n", strings.Join(names, " "))
	}

	ferr := file.Close()
	herr := header.Close()
	if ferr != nil {
		return ferr
	}
	return herr
}

func writeCSV(j *exportJob) error {
	w, err := createFile(j.fileName, false)
	if err != nil {
		return err
	}
	var buf []byte
	for i, d := range j.data {
		for _, c := range j.channels[i] {
			for y := 0; y < d.Height(); y++ {
				buf = buf[:0]
				for x := 0; x < d.Width(); x++ {
					if x > 0 {
						buf = append(buf, ',')
					}
					buf = appendElement(buf, d, x, y, c)
				}
				buf = append(buf, '\n')
				w.Write(buf)
			}
			w.WriteByte('\n')
		}
	}
	return w.Close()
}

func appendElement(buf []byte, d texdata.TexData, x, y, c int) []byte {
	switch d.Type() {
	case texdata.TypeUint8:
		return strconv.AppendUint(buf, uint64(d.Uint8(x, y, c)), 10)
	case texdata.TypeUint32:
		return strconv.AppendUint(buf, uint64(d.Uint32(x, y, c)), 10)
	default:
		return strconv.AppendFloat(buf, float64(d.Float32(x, y, c)), 'g', 9, 32)
	}
}

func writePNM(j *exportJob) error {
	w, err := createFile(j.fileName, true)
	if err != nil {
		return err
	}
	for i, d := range j.data {
		channels := j.channels[i]
		magic := 6
		if len(channels) == 1 {
			magic = 5
		}
		fmt.Fprintf(w, "P%d\n%d %d\n255\n", magic, d.Width(), d.Height())
		if defaultChannels(d, channels) {
			w.Write(d.PackedData())
			continue
		}
		for y := 0; y < d.Height(); y++ {
			for x := 0; x < d.Width(); x++ {
				for _, c := range channels {
					w.WriteByte(d.Uint8(x, y, c))
				}
			}
		}
	}
	return w.Close()
}

// image8 converts one or three 8-bit channels into an image the standard encoders accept.
func image8(d texdata.TexData, channels []int) image.Image {
	r := image.Rect(0, 0, d.Width(), d.Height())
	if len(channels) == 1 {
		img := image.NewGray(r)
		for y := 0; y < d.Height(); y++ {
			for x := 0; x < d.Width(); x++ {
				img.Pix[y*img.Stride+x] = d.Uint8(x, y, channels[0])
			}
		}
		return img
	}
	img := image.NewNRGBA(r)
	for y := 0; y < d.Height(); y++ {
		for x := 0; x < d.Width(); x++ {
			p := img.Pix[y*img.Stride+4*x:]
			p[0] = d.Uint8(x, y, channels[0])
			p[1] = d.Uint8(x, y, channels[1])
			p[2] = d.Uint8(x, y, channels[2])
			p[3] = 0xff
		}
	}
	return img
}

func pngCompression(level int) png.CompressionLevel {
	switch {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	}
	return png.BestCompression
}

func writePNG(j *exportJob) error {
	w, err := createFile(j.fileName, false)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: pngCompression(j.compressionLevel)}
	if err := enc.Encode(w, image8(j.data[0], j.channels[0])); err != nil {
		w.Close()
		return fmt.Errorf("png: %w", err)
	}
	return w.Close()
}

func writeTIFF(j *exportJob) error {
	w, err := createFile(j.fileName, false)
	if err != nil {
		return err
	}
	opts := &tiff.Options{Compression: tiff.Uncompressed}
	if j.compressionLevel > 0 {
		opts = &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	}
	if err := tiff.Encode(w, image8(j.data[0], j.channels[0]), opts); err != nil {
		w.Close()
		return fmt.Errorf("tiff: %w", err)
	}
	return w.Close()
}

func writePFS(j *exportJob) error {
	w, err := createFile(j.fileName, true)
	if err != nil {
		return err
	}
	for i, d := range j.data {
		channels := j.channels[i]
		fmt.Fprintf(w, "PFS1\n%d %d\n%d\n0\n", d.Width(), d.Height(), len(channels))
		for k, c := range channels {
			name := d.ChannelName(c)
			if name == "" {
				name = "CAMSIM-" + strconv.Itoa(k)
			}
			fmt.Fprintf(w, "%s\n0\n", name)
		}
		w.WriteString("ENDH")

		var word [4]byte
		for _, c := range channels {
			if d.Type() == texdata.TypeFloat32 {
				w.Write(d.PlanarData(c))
				continue
			}
			for y := 0; y < d.Height(); y++ {
				for x := 0; x < d.Width(); x++ {
					var v float32
					if d.Type() == texdata.TypeUint8 {
						v = float32(d.Uint8(x, y, c))
					} else {
						v = float32(d.Uint32(x, y, c))
					}
					binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
					w.Write(word[:])
				}
			}
		}
	}
	return w.Close()
}
