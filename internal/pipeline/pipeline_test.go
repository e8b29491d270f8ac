package pipeline_test

import (
	"bufio"
	"bytes"
	"errors"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugene-g/ambiata-weather/internal/domain"
	"github.com/eugene-g/ambiata-weather/internal/observability"
	"github.com/eugene-g/ambiata-weather/internal/pipeline"
)

// exampleLog is a well-formed seven-record flight log, all US observatory.
const exampleLog = `2006-08-27T11:17|12,56|36|US
2006-08-27T11:18|31,51|88|US
2006-08-27T11:19|42,49|39|US
2006-08-27T11:20|55,35|52|US
2006-08-27T11:21|67,31|69|US
2006-08-27T11:22|73,19|77|US
2006-08-27T11:23|89,3|61|US
`

func newTestPipeline() (*pipeline.Pipeline, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return pipeline.New(slog.Default(), metrics), metrics
}

func TestRun_WellFormedLog(t *testing.T) {
	p, metrics := newTestPipeline()

	stats, err := p.Run(strings.NewReader(exampleLog))
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.NumberOfRecords)
	if diff := cmp.Diff(map[string]int{"US": 7}, stats.Observations); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}
	// Locations are normalized miles → meters before aggregation.
	assert.Equal(t, domain.Location{X: 89 * 1609, Y: 3 * 1609}, stats.LastLocation)
	assert.True(t, stats.Distance.Sign() > 0)

	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.LinesRead))
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.RecordsAggregated))
}

func TestRun_SkipsMalformedAndBlankLines(t *testing.T) {
	lines := []string{
		"2006-08-27T11:17|12,56|36|US",
		"", // blank line
		"2006-08-27T11:18|31,51|88|US",
		"2006-08-27T11:19|42,49|39|US|stray", // extra appended segment
		"2006-08-27T11:19|42,49|39|US",
		"not a record at all",
		"2006-08-27T11:20|55,35|52|US",
		"2006-08-27T11:25|0,0|-500|AU", // below zero kelvin after normalization
		"2006-08-27T11:21|67,31|69|US",
		"2006-08-27T11:22|73,19|77|US",
		"2006-08-27T11:23|89,3|61|US",
	}
	p, metrics := newTestPipeline()

	stats, err := p.Run(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.NumberOfRecords)
	assert.Equal(t, float64(11), testutil.ToFloat64(metrics.LinesRead))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.LinesSkipped.WithLabelValues(observability.SkipReasonParse)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LinesSkipped.WithLabelValues(observability.SkipReasonTemperature)))

	records, skipped := p.Progress()
	assert.Equal(t, int64(7), records)
	assert.Equal(t, int64(4), skipped)
}

// failingReader yields its data and then fails, like a file on a dying disk.
type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestRun_ReadErrorIsFatal(t *testing.T) {
	p, _ := newTestPipeline()

	// Two valid records arrive before the reader fails; stats over the
	// truncated prefix must not be reported as a successful run.
	r := &failingReader{
		data: "2014-12-31T13:44|10,5|243|AU\n2014-12-31T13:45|11,6|244|AU\n",
		err:  errors.New("disk read error"),
	}
	stats, err := p.Run(r)
	require.Error(t, err)
	assert.Nil(t, stats)
	assert.Contains(t, err.Error(), "disk read error")
}

func TestRun_OverlongLineIsFatal(t *testing.T) {
	p, _ := newTestPipeline()

	input := "2014-12-31T13:44|10,5|243|AU\n" + strings.Repeat("x", 2<<20) + "\n"
	_, err := p.Run(strings.NewReader(input))
	require.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestRecords_SurfacesReadError(t *testing.T) {
	p, _ := newTestPipeline()

	r := &failingReader{
		data: "2014-12-31T13:44|10,5|243|AU\n",
		err:  errors.New("connection reset"),
	}
	var count int
	for range p.Records(r) {
		count++
	}
	assert.Equal(t, 1, count)
	require.ErrorContains(t, p.Err(), "connection reset")
}

func TestRun_SkipCountResetsBetweenRuns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := pipeline.New(logger, observability.NewMetricsForTesting())

	input := "garbage\n2014-12-31T13:44|10,5|243|AU\n"
	_, err := p.Run(strings.NewReader(input))
	require.NoError(t, err)

	buf.Reset()
	_, err = p.Run(strings.NewReader(input))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "lines_skipped=1")
}

func TestRun_CRLFLineEndings(t *testing.T) {
	p, _ := newTestPipeline()

	input := "2014-12-31T13:44|10,5|243|AU\r\n2014-12-31T13:45|11,6|244|AU\r\n"
	stats, err := p.Run(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.NumberOfRecords)
}

func TestRun_EmptyInputIsFatal(t *testing.T) {
	p, _ := newTestPipeline()

	_, err := p.Run(strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrNoRecords)
}

func TestRun_OnlyMalformedInputIsFatal(t *testing.T) {
	p, metrics := newTestPipeline()

	_, err := p.Run(strings.NewReader("garbage\n\nmore garbage\n"))
	require.ErrorIs(t, err, domain.ErrNoRecords)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.LinesRead))
}

func TestRun_NormalizesUnits(t *testing.T) {
	p, _ := newTestPipeline()

	// Out 3 km east, back to origin: two 3000 m legs.
	input := "2014-12-31T13:44|0,0|0|AU\n2014-12-31T13:45|3,0|0|AU\n2014-12-31T13:46|0,0|0|AU\n"
	stats, err := p.Run(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(6000), stats.Distance)
	// 0°C, so every temperature normalizes to 273.15 K.
	assert.Equal(t, "273.15", stats.MinTemp.String())
	assert.Equal(t, "273.15", stats.MaxTemp.String())
	assert.Equal(t, "273.15", stats.MeanTemp.String())
}

func TestRecords_IsLazy(t *testing.T) {
	p, metrics := newTestPipeline()

	// Take only the first record; the reader must not be drained.
	for range p.Records(strings.NewReader(exampleLog)) {
		break
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LinesRead))
}

func TestRecordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.log")
	require.NoError(t, os.WriteFile(path, []byte(exampleLog), 0o600))

	p, _ := newTestPipeline()
	records, err := p.RecordsFromFile(path)
	require.NoError(t, err)

	var count int
	for range records {
		count++
	}
	assert.Equal(t, 7, count)
}

func TestRecordsFromFile_MissingFile(t *testing.T) {
	p, _ := newTestPipeline()
	_, err := p.RecordsFromFile(filepath.Join(t.TempDir(), "absent.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open observation log")
}

func TestCheckReadiness(t *testing.T) {
	p, _ := newTestPipeline()

	require.Error(t, p.CheckReadiness(t.Context()))

	_, err := p.Run(strings.NewReader(exampleLog))
	require.NoError(t, err)
	require.NoError(t, p.CheckReadiness(t.Context()))
}
