// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command chartgen renders the output of the root package's
// BenchmarkThroughput as bar charts, one per workload shape and metric, with
// a bar for each local queue order at each worker count.
//
// Usage:
//
//	go test -run '^$' -bench Throughput -count 10 . > bench.txt
//	go run -C internal/cmd/chartgen . ../../../bench.txt
package main

import (
	"cmp"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"
	"golang.org/x/perf/benchproc"
	"golang.org/x/perf/benchunit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const outputDir = "charts"

type metric struct {
	unit       string
	title      string
	yAxisLabel string
	class      benchunit.Class
	suffix     string
}

var metrics = []metric{
	{"completed/s", "Throughput", "Tasks / Second", benchunit.Decimal, "throughput"},
	{"sec/op", "Latency", "Seconds / Task", benchunit.Decimal, "latency"},
	{"allocs/op", "Allocations", "Allocations / Task", benchunit.Decimal, "allocations"},
	{"B/op", "Allocated Bytes", "Allocated Bytes / Task", benchunit.Binary, "bytes"},
}

type point struct {
	shape   string
	order   string
	workers int
}

type dataset struct {
	samples map[point]map[string][]float64
	shapes  []string
	orders  []string
	workers []int
}

func main() {
	var pp benchproc.ProjectionParser
	shapeP, err := pp.Parse("/shape", nil)
	if err != nil {
		log.Fatal(err)
	}
	orderP, err := pp.Parse("/order", nil)
	if err != nil {
		log.Fatal(err)
	}
	workersP, err := pp.Parse("/workers", nil)
	if err != nil {
		log.Fatal(err)
	}
	residueP := pp.Residue()

	ds := &dataset{samples: make(map[point]map[string][]float64)}
	var residues []benchproc.Key

	benchFiles := &benchfmt.Files{
		Paths:       os.Args[1:],
		AllowStdin:  true,
		AllowLabels: true,
	}
	for benchFiles.Scan() {
		var res *benchfmt.Result
		switch rec := benchFiles.Result(); rec := rec.(type) {
		case *benchfmt.Result:
			res = rec
		case *benchfmt.SyntaxError:
			log.Print(rec)
			continue
		default:
			continue
		}

		tasksPerOp, ok := res.Value("tasks/op")
		if !ok {
			// Not a throughput result.
			continue
		}
		for i := range res.Values {
			v := &res.Values[i]
			if v.Unit != "tasks/op" && strings.HasSuffix(v.Unit, "/op") {
				v.Value /= tasksPerOp
			}
		}

		workers, err := strconv.Atoi(workersP.Project(res).Get(workersP.Fields()[0]))
		if err != nil {
			log.Printf("skipping %s: %v", res.Name, err)
			continue
		}
		p := point{
			shape:   shapeP.Project(res).Get(shapeP.Fields()[0]),
			order:   orderP.Project(res).Get(orderP.Fields()[0]),
			workers: workers,
		}
		ds.add(p, res.Values)
		residues = append(residues, residueP.Project(res))
	}
	if err := benchFiles.Err(); err != nil {
		log.Fatalf("Error reading benchmark files: %v", err)
	}
	if len(ds.samples) == 0 {
		log.Fatal("no throughput results found")
	}
	if nonsingular := benchproc.NonSingularFields(residues); len(nonsingular) > 0 {
		fmt.Printf("warning: results vary in %s\n", nonsingular)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatal(err)
	}
	for _, shape := range ds.shapes {
		for _, m := range metrics {
			if err := ds.plot(shape, m); err != nil {
				log.Fatalf("Error creating %s %s chart: %v", shape, m.suffix, err)
			}
		}
	}
	fmt.Printf("Charts generated successfully in the '%s' directory.\n", outputDir)
}

func (ds *dataset) add(p point, values []benchfmt.Value) {
	byUnit := ds.samples[p]
	if byUnit == nil {
		byUnit = make(map[string][]float64)
		ds.samples[p] = byUnit
		ds.shapes = insertSorted(ds.shapes, p.shape)
		ds.orders = insertSorted(ds.orders, p.order)
		ds.workers = insertSorted(ds.workers, p.workers)
	}
	for _, v := range values {
		byUnit[v.Unit] = append(byUnit[v.Unit], v.Value)
	}
}

func insertSorted[E cmp.Ordered](s []E, e E) []E {
	i, found := slices.BinarySearch(s, e)
	if found {
		return s
	}
	return slices.Insert(s, i, e)
}

func (ds *dataset) summarize(p point, unit string) (benchmath.Summary, bool) {
	values := ds.samples[p][unit]
	if len(values) == 0 {
		return benchmath.Summary{}, false
	}
	sample := benchmath.NewSample(values, &benchmath.DefaultThresholds)
	for _, w := range sample.Warnings {
		log.Printf("%v %s: sample warning: %v", p, unit, w)
	}
	return benchmath.AssumeNothing.Summary(sample, 0.95), true
}

func (ds *dataset) plot(shape string, m metric) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", m.title, shape)
	p.X.Label.Text = "Workers"
	p.Y.Label.Text = m.yAxisLabel
	styleAxes(p)

	workerLabels := make([]string, len(ds.workers))
	for i, n := range ds.workers {
		workerLabels[i] = strconv.Itoa(n)
	}
	p.NominalX(workerLabels...)

	// Brewer palettes start at three colors.
	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Paired", max(3, len(ds.orders)))
	if err != nil {
		return err
	}
	colors := palette.Colors()

	barSpacing := vg.Points(3)
	barWidth := vg.Points(24)
	groupWidth := (barWidth + barSpacing) * vg.Length(len(ds.orders)-1)

	for i, order := range ds.orders {
		values := make(plotter.Values, len(ds.workers))
		labels := plotter.XYLabels{
			XYs:    make(plotter.XYs, len(ds.workers)),
			Labels: make([]string, len(ds.workers)),
		}
		for j, workers := range ds.workers {
			s, ok := ds.summarize(point{shape, order, workers}, m.unit)
			if !ok {
				continue
			}
			values[j] = s.Center
			labels.XYs[j] = plotter.XY{X: float64(j), Y: s.Center}
			labels.Labels[j] = formatSummary(&s, m.class)
		}

		bc, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		offset := (barWidth+barSpacing)*vg.Length(i) - groupWidth/2
		bc.Offset = offset
		bc.Color = colors[i]
		bc.LineStyle.Width = 0
		p.Add(bc)
		p.Legend.Add(order, bc)

		l, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		l.Offset = vg.Point{X: offset - barWidth/4, Y: vg.Points(4)}
		for k := range l.TextStyle {
			l.TextStyle[k].Color = color.Gray{128}
			l.TextStyle[k].Font.Size *= 0.7
		}
		p.Add(l)
	}

	p.Y.Max *= 1.3
	name := fmt.Sprintf("%s_%s.svg", shape, m.suffix)
	return p.Save(9*vg.Inch, 6*vg.Inch, filepath.Join(outputDir, name))
}

func styleAxes(p *plot.Plot) {
	gray := color.Gray{128}
	p.Title.TextStyle.Color = gray
	p.X.Color = gray
	p.Y.Color = gray
	p.X.Label.TextStyle.Color = gray
	p.Y.Label.TextStyle.Color = gray
	p.X.Tick.Color = gray
	p.Y.Tick.Color = gray
	p.X.Tick.Label.Color = gray
	p.Y.Tick.Label.Color = gray
	p.Legend.TextStyle.Color = gray
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = 1 * vg.Millimeter
	p.BackgroundColor = color.Transparent
}

func formatRatio(n, d float64) string {
	switch {
	case d == 0:
		if n == 0 {
			return "0%"
		}
		return fmt.Sprintf("%.2g", n)
	case math.Abs(n/d) < 1:
		return fmt.Sprintf("%.2g%%", math.Round(100*n/d))
	default:
		return fmt.Sprintf("%.2gx", n/d)
	}
}

func formatSummary(s *benchmath.Summary, class benchunit.Class) string {
	center := benchunit.Scale(s.Center, class)
	plus := formatRatio(s.Hi-s.Center, s.Center)
	minus := formatRatio(s.Center-s.Lo, s.Center)
	if plus == minus {
		return fmt.Sprintf("%s\n±%s", center, plus)
	}
	return fmt.Sprintf("%s\n+%s\n-%s", center, plus, minus)
}
