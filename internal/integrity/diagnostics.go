package integrity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/valschmidt/kmall/internal/kmall"
)

type Severity string

const (
	ERROR Severity = "ERROR"
	WARN  Severity = "WARN"
	INFO  Severity = "INFO"
)

// Diagnostic is one finding from the acceptance evaluation, serialized
// one per line in NDJSON output.
type Diagnostic struct {
	Ts       time.Time `json:"ts"`
	File     string    `json:"file"`
	CheckID  string    `json:"checkId"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// AcceptanceReport aggregates the outcome of every check run over one
// file. Pass is true when no ERROR-level finding exists.
type AcceptanceReport struct {
	Summary struct {
		File     string `json:"file"`
		Total    int    `json:"total"`
		Errors   int    `json:"errors"`
		Warnings int    `json:"warnings"`
		Pass     bool   `json:"pass"`
	} `json:"summary"`
	Ping     PingReport       `json:"ping"`
	Nav      NavigationReport `json:"nav"`
	Tags     []TagCount       `json:"tags"`
	Findings []Diagnostic     `json:"findings,omitempty"`
}

// EvalOptions tunes the acceptance evaluation.
type EvalOptions struct {
	GapThresholdSec float64
}

// Evaluate runs the completeness and navigation checks over one session
// and folds the results into an acceptance report. Check failures become
// findings rather than propagated errors so a damaged file still yields
// a usable report.
func Evaluate(s *kmall.Session, opts EvalOptions) (AcceptanceReport, error) {
	var rep AcceptanceReport
	rep.Summary.File = s.Path()

	idx, err := s.Index()
	if err != nil {
		return rep, err
	}
	rep.Tags = TagSummary(idx)

	add := func(check string, sev Severity, format string, args ...interface{}) {
		rep.Findings = append(rep.Findings, Diagnostic{
			Ts:       time.Now().UTC(),
			File:     s.Path(),
			CheckID:  check,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if !idx.Complete {
		add("index.complete", ERROR, "index incomplete: truncated final record")
	}
	if idx.ErrorCount > 0 {
		add("index.errors", WARN, "%d malformed regions skipped during indexing", idx.ErrorCount)
	}

	ping, err := CheckPingCount(s)
	if err != nil {
		add("ping.count", ERROR, "ping check failed: %v", err)
	} else {
		rep.Ping = ping
		if ping.PingsMissed > 0 {
			add("ping.missed", ERROR, "%d of %d expected pings missing", ping.PingsMissed, ping.ExpectedPings)
		}
		if ping.MissingMRZRecords > 0 {
			add("ping.fans", ERROR, "%d receive-fan records never arrived", ping.MissingMRZRecords)
		}
		if ping.DecodeErrors > 0 {
			add("ping.decode", WARN, "%d depth/range records failed to decode", ping.DecodeErrors)
		}
	}

	nav, err := CheckNavigationGaps(s, opts.GapThresholdSec)
	if err != nil {
		add("nav.gaps", WARN, "navigation check skipped: %v", err)
	} else {
		rep.Nav = nav
		if nav.GapsOverThreshold > 0 {
			add("nav.gaps", ERROR, "%d navigation gaps of %.2fs or more (max %.3fs)",
				nav.GapsOverThreshold, nav.ThresholdSec, nav.MaxGapSec)
		}
	}

	var errs, warns int
	for _, d := range rep.Findings {
		switch d.Severity {
		case ERROR:
			errs++
		case WARN:
			warns++
		}
	}
	rep.Summary.Total = len(rep.Findings)
	rep.Summary.Errors = errs
	rep.Summary.Warnings = warns
	rep.Summary.Pass = errs == 0
	return rep, nil
}

// WriteDiagnosticsNDJSON writes the findings one JSON object per line.
func WriteDiagnosticsNDJSON(path string, diags []Diagnostic) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, d := range diags {
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		w.Write(b)
		w.WriteString("\n")
	}
	return nil
}
