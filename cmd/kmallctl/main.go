package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/valschmidt/kmall/internal/common"
	"github.com/valschmidt/kmall/internal/compress"
	"github.com/valschmidt/kmall/internal/integrity"
	"github.com/valschmidt/kmall/internal/kmall"
	"github.com/valschmidt/kmall/internal/report"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "index":
		indexCmd(os.Args[2:])
	case "verify":
		verifyCmd(os.Args[2:])
	case "compress":
		compressCmd(os.Args[2:])
	case "decompress":
		decompressCmd(os.Args[2:])
	case "attitude":
		attitudeCmd(os.Args[2:])
	case "version":
		fmt.Printf("kmallctl %s (built %s)\n", version, buildDate)
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`kmallctl %s (built %s) <command> [options]

Commands:
  index      --in <file> [--log <file>]
  verify     --in <file> | --in-dir <dir> [--gap-threshold <sec>] [--out <diagnostics.ndjson>] [--acceptance <acceptance.json>] [--pdf <report.pdf>] [--log <file>]
  compress   --in <file> --level <0|1> [--scales <scales.yaml>] [--manifest <manifest.json>] [--log <file>]
  decompress --in <file> [--scales <scales.yaml>] [--manifest <manifest.json>] [--log <file>]
  attitude   --in <file> --out <samples.csv>
  version
`, version, buildDate)
}

func setupLog(path string) {
	if path == "" {
		return
	}
	common.ConfigureLogFile(common.LogFileConfig{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 30,
	})
}

func openSession(path string) *kmall.Session {
	s, err := kmall.Open(path)
	if err != nil {
		common.Fatalf("open %s: %v", path, err)
	}
	return s
}

func indexCmd(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	logFile := fs.String("log", "", "rotating log file")
	fs.Parse(args)
	setupLog(*logFile)
	if *in == "" {
		fs.Usage()
		os.Exit(1)
	}

	s := openSession(*in)
	defer s.Close()
	metrics := common.NewMetrics()
	s.SetMetrics(metrics)
	metrics.Start()
	stop := common.StartProgressPrinter(os.Stderr, metrics, 0)
	idx, err := s.Index()
	stop()
	metrics.Stop()
	if err != nil {
		common.Fatalf("index %s: %v", *in, err)
	}

	fmt.Printf("File:      %s\n", *in)
	fmt.Printf("Size:      %s\n", common.FormatBytes(idx.FileSize))
	fmt.Printf("Records:   %d\n", len(idx.Entries))
	fmt.Printf("Complete:  %v\n", idx.Complete)
	fmt.Printf("Errors:    %d\n", idx.ErrorCount)

	snap := metrics.Snapshot()
	fmt.Printf("Duration:  %s (%.2f MiB/s)\n", snap.Duration.Round(1e6), snap.ThroughputBytesPerSecond()/(1<<20))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tCOUNT\tBYTES")
	for _, t := range integrity.TagSummary(idx) {
		fmt.Fprintf(w, "%s\t%d\t%s\n", t.Tag, t.Count, common.FormatBytes(t.Bytes))
	}
	w.Flush()
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	inDir := fs.String("in-dir", "", "directory of input files")
	gap := fs.Float64("gap-threshold", integrity.DefaultGapThresholdSec, "navigation gap threshold in seconds")
	outNDJSON := fs.String("out", "", "diagnostics NDJSON output")
	outJSON := fs.String("acceptance", "", "acceptance report JSON output")
	outPDF := fs.String("pdf", "", "quality report PDF output")
	logFile := fs.String("log", "", "rotating log file")
	fs.Parse(args)
	setupLog(*logFile)

	var paths []string
	switch {
	case *in != "":
		paths = []string{*in}
	case *inDir != "":
		entries, err := os.ReadDir(*inDir)
		if err != nil {
			common.Fatalf("read dir %s: %v", *inDir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(e.Name()), ".kmall") {
				paths = append(paths, filepath.Join(*inDir, e.Name()))
			}
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			common.Fatalf("no .kmall files in %s", *inDir)
		}
	default:
		fs.Usage()
		os.Exit(1)
	}

	failed := 0
	for _, path := range paths {
		if !verifyOne(path, *gap, *outNDJSON, *outJSON, *outPDF, len(paths) > 1) {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// verifyOne evaluates one file. When part of a batch, output paths get
// the input basename as a prefix so results do not clobber each other.
func verifyOne(path string, gap float64, outNDJSON, outJSON, outPDF string, batch bool) bool {
	s := openSession(path)
	defer s.Close()

	rep, err := integrity.Evaluate(s, integrity.EvalOptions{GapThresholdSec: gap})
	if err != nil {
		common.Fatalf("verify %s: %v", path, err)
	}

	fmt.Printf("%s: %s (%d errors, %d warnings)\n", path, passLabel(rep.Summary.Pass), rep.Summary.Errors, rep.Summary.Warnings)
	for _, d := range rep.Findings {
		fmt.Printf("  [%s] %s: %s\n", d.Severity, d.CheckID, d.Message)
	}

	if outNDJSON != "" {
		if err := integrity.WriteDiagnosticsNDJSON(batchPath(outNDJSON, path, batch), rep.Findings); err != nil {
			common.Fatalf("write diagnostics: %v", err)
		}
	}
	if outJSON != "" {
		if err := report.SaveAcceptanceJSON(rep, batchPath(outJSON, path, batch)); err != nil {
			common.Fatalf("write acceptance report: %v", err)
		}
	}
	if outPDF != "" {
		hash, _, err := common.Sha256OfFile(path)
		if err != nil {
			common.Fatalf("hash %s: %v", path, err)
		}
		if err := report.SaveQualityPDF(rep, hash, batchPath(outPDF, path, batch)); err != nil {
			common.Fatalf("write pdf report: %v", err)
		}
	}
	return rep.Summary.Pass
}

func batchPath(out, input string, batch bool) string {
	if !batch {
		return out
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(out), base+"."+filepath.Base(out))
}

func loadScales(path string) compress.ScaleTable {
	if path == "" {
		return compress.DefaultScaleTable()
	}
	t, err := compress.LoadScaleTable(path)
	if err != nil {
		common.Fatalf("load scale table: %v", err)
	}
	return t
}

func compressCmd(args []string) {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	level := fs.Int("level", 0, "retention level (0 keeps seabed image, 1 drops it)")
	scales := fs.String("scales", "", "YAML scale table (default built-in)")
	manifestOut := fs.String("manifest", "", "manifest JSON output")
	logFile := fs.String("log", "", "rotating log file")
	fs.Parse(args)
	setupLog(*logFile)
	if *in == "" {
		fs.Usage()
		os.Exit(1)
	}
	if *level != compress.Level0 && *level != compress.Level1 {
		common.Fatalf("unsupported level %d", *level)
	}

	table := loadScales(*scales)
	codec, err := compress.New(table)
	if err != nil {
		common.Fatalf("scale table: %v", err)
	}

	s := openSession(*in)
	defer s.Close()
	outPath, err := codec.Compress(s, uint8(*level))
	if err != nil {
		common.Fatalf("compress %s: %v", *in, err)
	}
	fmt.Printf("wrote %s\n", outPath)

	if *manifestOut != "" {
		writeManifest("compress", *in, outPath, *level, int(table.Version), *manifestOut)
	}
}

func decompressCmd(args []string) {
	fs := flag.NewFlagSet("decompress", flag.ExitOnError)
	in := fs.String("in", "", "compressed input file")
	scales := fs.String("scales", "", "YAML scale table (default built-in)")
	manifestOut := fs.String("manifest", "", "manifest JSON output")
	logFile := fs.String("log", "", "rotating log file")
	fs.Parse(args)
	setupLog(*logFile)
	if *in == "" {
		fs.Usage()
		os.Exit(1)
	}

	table := loadScales(*scales)
	codec, err := compress.New(table)
	if err != nil {
		common.Fatalf("scale table: %v", err)
	}

	s := openSession(*in)
	defer s.Close()
	outPath, err := codec.Decompress(s)
	if err != nil {
		if errors.Is(err, kmall.ErrUnsupportedLevel) {
			common.Fatalf("decompress %s: input carries no recognized compression marker", *in)
		}
		common.Fatalf("decompress %s: %v", *in, err)
	}
	fmt.Printf("wrote %s\n", outPath)

	if *manifestOut != "" {
		writeManifest("decompress", *in, outPath, 0, int(table.Version), *manifestOut)
	}
}

func writeManifest(op, in, out string, level, scaleVersion int, manifestPath string) {
	inHash, inBytes, err := common.Sha256OfFile(in)
	if err != nil {
		common.Fatalf("hash %s: %v", in, err)
	}
	outHash, outBytes, err := common.Sha256OfFile(out)
	if err != nil {
		common.Fatalf("hash %s: %v", out, err)
	}
	m := report.Manifest{
		Operation:    op,
		InputPath:    in,
		InputSha256:  inHash,
		InputBytes:   inBytes,
		OutputPath:   out,
		OutputSha256: outHash,
		OutputBytes:  outBytes,
		Level:        level,
		ScaleVersion: scaleVersion,
	}
	if err := report.SaveManifest(m, manifestPath); err != nil {
		common.Fatalf("write manifest: %v", err)
	}
	fmt.Printf("ratio %.3f, manifest %s\n", m.Ratio(), manifestPath)
}

func attitudeCmd(args []string) {
	fs := flag.NewFlagSet("attitude", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	out := fs.String("out", "", "CSV output")
	fs.Parse(args)
	if *in == "" || *out == "" {
		fs.Usage()
		os.Exit(1)
	}

	s := openSession(*in)
	defer s.Close()
	samples, decodeErrors, err := integrity.ExtractAttitude(s)
	if err != nil {
		common.Fatalf("extract attitude: %v", err)
	}
	if decodeErrors > 0 {
		common.Logf("%d attitude records failed to decode", decodeErrors)
	}

	f, err := os.Create(*out)
	if err != nil {
		common.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"time", "roll_deg", "pitch_deg", "heading_deg", "heave_m"})
	for _, sm := range samples {
		w.Write([]string{
			strconv.FormatFloat(sm.Time, 'f', 6, 64),
			strconv.FormatFloat(sm.RollDeg, 'f', 4, 64),
			strconv.FormatFloat(sm.PitchDeg, 'f', 4, 64),
			strconv.FormatFloat(sm.HeadingDeg, 'f', 4, 64),
			strconv.FormatFloat(sm.HeaveM, 'f', 4, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		common.Fatalf("write %s: %v", *out, err)
	}
	fmt.Printf("wrote %d samples to %s\n", len(samples), *out)
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
