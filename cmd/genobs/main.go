// Command genobs generates synthetic observation logs for testing the
// aggregation pipeline. Output is deterministic for a given seed, so test
// fixtures can be regenerated reproducibly.
//
// Usage:
//
//	go run ./cmd/genobs -out testdata/flight.log -count 10000
//	go run ./cmd/genobs -out flight.log -count 500000 -malformed 0.1 -seed 42
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated log")
	count := flag.Int("count", 1000, "number of lines to generate")
	malformed := flag.Float64("malformed", 0.05, "fraction of lines that are malformed")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *malformed < 0 || *malformed > 1 {
		return fmt.Errorf("-malformed must be between 0 and 1, got %g", *malformed)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rng := rand.New(rand.NewSource(*seed))
	gen := newGenerator(rng)

	var valid, bad int
	for i := 0; i < *count; i++ {
		if rng.Float64() < *malformed {
			fmt.Fprintln(w, gen.malformedLine())
			bad++
			continue
		}
		fmt.Fprintln(w, gen.line())
		valid++
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	log.Printf("wrote %s: %d valid, %d malformed", *out, valid, bad)
	return nil
}

// observatoryProfile pairs an observatory code with a plausible raw
// temperature range in its native unit.
type observatoryProfile struct {
	code    string
	minTemp int
	maxTemp int
}

var profiles = []observatoryProfile{
	{code: "AU", minTemp: -40, maxTemp: 45},  // celsius
	{code: "US", minTemp: -40, maxTemp: 110}, // fahrenheit
	{code: "FR", minTemp: 230, maxTemp: 320}, // kelvin
	{code: "DE", minTemp: 230, maxTemp: 320}, // kelvin (unrecognized code)
	{code: "RU", minTemp: 230, maxTemp: 320}, // kelvin (unrecognized code)
}

// generator produces a balloon's log as a random walk: timestamps advance,
// the location drifts, and each observation picks a reporting observatory.
type generator struct {
	rng *rand.Rand
	at  time.Time
	x   int64
	y   int64
}

func newGenerator(rng *rand.Rand) *generator {
	return &generator{
		rng: rng,
		at:  time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *generator) line() string {
	g.advance()
	p := profiles[g.rng.Intn(len(profiles))]
	temp := p.minTemp + g.rng.Intn(p.maxTemp-p.minTemp+1)
	return fmt.Sprintf("%s|%d,%d|%d|%s", g.at.Format("2006-01-02T15:04"), g.x, g.y, temp, p.code)
}

func (g *generator) advance() {
	g.at = g.at.Add(time.Duration(1+g.rng.Intn(10)) * time.Minute)
	g.x += int64(g.rng.Intn(21) - 10)
	g.y += int64(g.rng.Intn(21) - 10)
}

// malformedLine returns one of the failure shapes the pipeline must skip:
// blank lines, wrong field counts, invalid timestamps, split temperature
// digits, and plain garbage.
func (g *generator) malformedLine() string {
	g.advance()
	ts := g.at.Format("2006-01-02T15:04")
	switch g.rng.Intn(6) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s|%d,%d|280", ts, g.x, g.y) // missing observatory
	case 2:
		return fmt.Sprintf("%s|%d,%d|280|AU|extra", ts, g.x, g.y)
	case 3:
		return fmt.Sprintf("%sT25:00|%d,%d|280|AU", g.at.Format("2006-01-02"), g.x, g.y)
	case 4:
		return fmt.Sprintf("%s|%d,%d|2 80|AU", ts, g.x, g.y)
	default:
		return "###"
	}
}
