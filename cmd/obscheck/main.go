// Command obscheck lints an observation log, reporting each line the
// aggregation pipeline would silently skip and why. The pipeline itself
// surfaces no per-line diagnostics; this tool exists for debugging log
// producers.
//
// Usage:
//
//	go run ./cmd/obscheck flight.log
//
// Exits 0 when every line is valid, 1 otherwise.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/eugene-g/ambiata-weather/internal/domain"
)

// maxReported caps the per-line diagnostics printed; the summary always
// reflects the whole file.
const maxReported = 50

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: obscheck <observation-log>")
		os.Exit(2)
	}

	summary, err := check(flag.Arg(0), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "obscheck: %v\n", err)
		os.Exit(2)
	}
	if summary.skipped() > 0 {
		os.Exit(1)
	}
}

type checkSummary struct {
	valid      int
	parseFail  int
	rejectTemp int
}

func (s checkSummary) skipped() int { return s.parseFail + s.rejectTemp }

func check(path string, out *os.File) (checkSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return checkSummary{}, err
	}
	defer f.Close()

	var summary checkSummary
	reported := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		rec, err := domain.ParseLine(scanner.Text())
		if err != nil {
			summary.parseFail++
			reported = report(out, reported, lineNum, err)
			continue
		}
		if _, err := domain.Normalize(rec); err != nil {
			summary.rejectTemp++
			reported = report(out, reported, lineNum, err)
			continue
		}
		summary.valid++
	}
	if err := scanner.Err(); err != nil {
		return summary, err
	}

	fmt.Fprintf(out, "%s: %d valid, %d unparseable, %d rejected\n",
		path, summary.valid, summary.parseFail, summary.rejectTemp)
	return summary, nil
}

func report(out *os.File, reported, lineNum int, err error) int {
	if reported == maxReported {
		fmt.Fprintln(out, "  ... further problems omitted")
		return reported + 1
	}
	if reported > maxReported {
		return reported
	}
	fmt.Fprintf(out, "  line %d: %v\n", lineNum, err)
	return reported + 1
}
