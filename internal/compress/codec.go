package compress

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/valschmidt/kmall/internal/common"
	"github.com/valschmidt/kmall/internal/kmall"
)

// Codec runs whole-file compression and decompression passes. The zero
// value is not usable; construct with New.
type Codec struct {
	table ScaleTable
}

// New returns a codec bound to one scale table.
func New(table ScaleTable) (*Codec, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Codec{table: table}, nil
}

// Table reports the bound scale table.
func (c *Codec) Table() ScaleTable { return c.table }

// CompressedPath is the output name for one input path and level.
func CompressedPath(input string, level uint8) string {
	return fmt.Sprintf("%s.kz%d", input, level)
}

// RestoredPath is the output name decompression writes. The synthetic
// suffix and any original extension are stripped first so repeated
// round trips do not stack suffixes.
func RestoredPath(input string) string {
	base := input
	for _, suffix := range []string{".kz0", ".kz1"} {
		base = strings.TrimSuffix(base, suffix)
	}
	base = strings.TrimSuffix(base, ".kmall")
	return base + ".restored.kmall"
}

// outputFile writes through a temp path and renames on success, so a
// failed pass never leaves a half-written file behind.
type outputFile struct {
	f    *os.File
	w    *bufio.Writer
	tmp  string
	path string
}

func createOutput(path string) (*outputFile, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}
	return &outputFile{f: f, w: bufio.NewWriterSize(f, 1<<20), tmp: tmp, path: path}, nil
}

func (o *outputFile) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

func (o *outputFile) commit() error {
	if err := o.w.Flush(); err != nil {
		o.abort()
		return err
	}
	if err := o.f.Close(); err != nil {
		os.Remove(o.tmp)
		return err
	}
	return os.Rename(o.tmp, o.path)
}

func (o *outputFile) abort() {
	o.f.Close()
	os.Remove(o.tmp)
}

// Compress writes a quantized copy of the session's file and returns
// the output path. Depth/range records are re-emitted under the
// synthetic tag for level; every other record is copied through
// byte-for-byte. A depth/range record that fails to decode is also
// copied through unchanged rather than lost.
func (c *Codec) Compress(s *kmall.Session, level uint8) (string, error) {
	if _, err := levelTag(level); err != nil {
		return "", err
	}
	idx, err := s.Index()
	if err != nil {
		return "", err
	}
	outPath := CompressedPath(s.Path(), level)
	out, err := createOutput(outPath)
	if err != nil {
		return "", err
	}

	quantized, copied := 0, 0
	for _, e := range idx.Entries {
		raw, err := s.ReadRecord(e)
		if err != nil {
			out.abort()
			return "", err
		}
		if e.Tag == kmall.TagMRZ {
			if d, err := kmall.Decode(raw); err == nil {
				if mrz, ok := d.(*kmall.MRZ); ok {
					cz, err := encodeCZ(mrz, level, c.table)
					if err != nil {
						out.abort()
						return "", err
					}
					if _, err := out.Write(cz); err != nil {
						out.abort()
						return "", err
					}
					quantized++
					continue
				}
			}
			// Undecodable depth/range record: keep the original bytes.
		}
		if _, err := out.Write(raw); err != nil {
			out.abort()
			return "", err
		}
		copied++
	}
	if err := out.commit(); err != nil {
		return "", err
	}
	common.Logf("compressed %s: %d records quantized at level %d, %d copied", s.Path(), quantized, level, copied)
	return outPath, nil
}

// Decompress reverses Compress: synthetic records are dequantized back
// into vendor depth/range records, everything else is copied through.
// Input without a single recognized synthetic record is rejected before
// any output is created. The first corrupt record aborts the whole pass
// and removes the partial output.
func (c *Codec) Decompress(s *kmall.Session) (string, error) {
	idx, err := s.Index()
	if err != nil {
		return "", err
	}
	synthetic := 0
	for _, e := range idx.Entries {
		if _, ok := tagLevel(e.Tag); ok {
			synthetic++
		}
	}
	if synthetic == 0 {
		return "", fmt.Errorf("%w: no synthetic records in %s", kmall.ErrUnsupportedLevel, s.Path())
	}

	outPath := RestoredPath(s.Path())
	out, err := createOutput(outPath)
	if err != nil {
		return "", err
	}
	restored := 0
	for _, e := range idx.Entries {
		raw, err := s.ReadRecord(e)
		if err != nil {
			out.abort()
			return "", err
		}
		if _, ok := tagLevel(e.Tag); ok {
			mrz, _, err := decodeCZ(raw, c.table)
			if err != nil {
				out.abort()
				return "", err
			}
			raw = kmall.EncodeMRZ(mrz)
			restored++
		}
		if _, err := out.Write(raw); err != nil {
			out.abort()
			return "", err
		}
	}
	if err := out.commit(); err != nil {
		return "", err
	}
	common.Logf("decompressed %s: %d records restored", s.Path(), restored)
	return outPath, nil
}
