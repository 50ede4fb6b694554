// Command pointfeature computes FPFH or colour-extended CFPFH descriptors
// for a PCD point cloud or a MOL2 cavity and writes them as TSV.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/pointfeature/internal/config"
	"github.com/banshee-data/pointfeature/internal/feature"
	"github.com/banshee-data/pointfeature/internal/featuredb"
	"github.com/banshee-data/pointfeature/internal/fsutil"
	"github.com/banshee-data/pointfeature/internal/geometry"
	"github.com/banshee-data/pointfeature/internal/mol2"
	"github.com/banshee-data/pointfeature/internal/monitoring"
	"github.com/banshee-data/pointfeature/internal/pcd"
	"github.com/banshee-data/pointfeature/internal/report"
	"github.com/banshee-data/pointfeature/internal/search"
	"github.com/banshee-data/pointfeature/internal/timeutil"
	"github.com/banshee-data/pointfeature/internal/version"
)

// errUsage marks flag problems already reported to stderr.
var errUsage = errors.New("usage error")

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr, fsutil.OSFileSystem{}, timeutil.RealClock{})
	if err == nil {
		return
	}
	if !errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "pointfeature: %v\n", err)
	}
	os.Exit(1)
}

type options struct {
	input      string
	configPath string
	output     string
	dbPath     string
	plotDir    string
	plotPoints string
	htmlPath   string
	savePCD    string
	transform  string
	deleteRun  string
	listRuns   bool
	workers    int
	geometric  bool
	verbose    bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("pointfeature", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "input", "", "Input point cloud (.pcd) or cavity (.mol2)")
	fs.StringVar(&o.configPath, "config", "", "Descriptor config JSON (defaults are used when empty)")
	fs.StringVar(&o.output, "output", "-", "Descriptor TSV output path, - for stdout")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to store the run in")
	fs.StringVar(&o.plotDir, "plot-dir", "", "Directory for per-point descriptor PNG charts")
	fs.StringVar(&o.plotPoints, "plot-point", "0", "Comma separated point indices to chart with -plot-dir")
	fs.StringVar(&o.htmlPath, "html", "", "Write an HTML summary of all descriptors to this path")
	fs.StringVar(&o.savePCD, "save-pcd", "", "Write the loaded cloud, with normals, as ASCII PCD")
	fs.StringVar(&o.transform, "transform", "", "Rigid 4x4 row-major transform applied to the input, 16 comma separated values")
	fs.BoolVar(&o.listRuns, "list-runs", false, "List the runs stored in -db and exit")
	fs.StringVar(&o.deleteRun, "delete-run", "", "Delete the run with this ID from -db and exit")
	fs.IntVar(&o.workers, "workers", -1, "Worker goroutines per pass (0 = all CPUs, -1 = from config)")
	fs.BoolVar(&o.geometric, "geometric", false, "Compute the 33-bin geometric descriptor even when colours exist")
	fs.BoolVar(&o.verbose, "verbose", false, "Log pass timings and index details")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	storeOnly := o.listRuns || o.deleteRun != ""
	if storeOnly && o.dbPath == "" {
		fmt.Fprintln(stderr, "pointfeature: -list-runs and -delete-run need -db")
		fs.Usage()
		return nil, errUsage
	}
	if !o.version && !storeOnly && o.input == "" {
		fmt.Fprintln(stderr, "pointfeature: -input is required")
		fs.Usage()
		return nil, errUsage
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer, fsys fsutil.FileSystem, clock timeutil.Clock) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintf(stdout, "pointfeature %s\n", version.String())
		return nil
	}
	monitoring.SetVerbose(o.verbose)
	if o.listRuns || o.deleteRun != "" {
		return runStore(o, stdout, clock)
	}

	cfg := config.DefaultDescriptorConfig()
	if o.configPath != "" {
		if cfg, err = config.LoadDescriptorConfig(o.configPath); err != nil {
			return err
		}
	}
	workers := cfg.GetWorkers()
	if o.workers >= 0 {
		workers = o.workers
	}

	pc, labels, err := loadInput(fsys, o.input)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d points from %s", pc.Len(), o.input)
	if o.transform != "" {
		T, err := parseTransform(o.transform)
		if err != nil {
			return err
		}
		pc = geometry.Transform(pc, T)
	}

	index := search.NewKDTree(pc.Points)
	if cfg.GetEstimateNormals() {
		start := clock.Now()
		geometry.EstimateNormals(pc, index, cfg.NormalSearchParam(), workers)
		monitoring.Debugf("estimated normals (%v) in %v", cfg.NormalSearchParam(), clock.Since(start))
	}
	if pc.HasNormals() {
		if dir, ok := cfg.GetOrientDirection(); ok {
			if err := geometry.OrientNormalsToDirection(pc, dir); err != nil {
				return err
			}
		} else if cfg.GetOrientTowardsCentroid() {
			if err := geometry.OrientNormalsTowardsPoint(pc, pc.Centroid()); err != nil {
				return err
			}
		}
	}
	if o.savePCD != "" {
		if err := pcd.WriteFile(fsys, o.savePCD, pc); err != nil {
			return err
		}
	}

	useColor := cfg.GetColorDescriptor() && !o.geometric
	if useColor && !pc.HasColors() {
		monitoring.Logf("%s has no colors, computing the geometric descriptor", o.input)
		useColor = false
	}
	opts := feature.Options{Param: cfg.SearchParam(), Index: index, Workers: workers}

	start := clock.Now()
	var f *feature.Feature
	if useColor {
		f = feature.ComputeCFPFH(pc, opts)
	} else {
		f = feature.ComputeFPFH(pc, opts)
	}
	monitoring.Logf("computed %dx%d descriptors (%v) in %v", f.Dimension(), f.Num(), opts.Param, clock.Since(start))

	if err := writeOutput(fsys, stdout, o.output, f, labels); err != nil {
		return err
	}

	if o.dbPath != "" {
		store, err := featuredb.Open(o.dbPath, clock)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.InsertRun(featuredb.Run{
			Source: filepath.Base(o.input),
			Param:  opts.Param,
			Labels: labels,
		}, f)
		if err != nil {
			return err
		}
		monitoring.Logf("stored run %s in %s", id, o.dbPath)
	}

	if o.plotDir != "" {
		points, err := parsePoints(o.plotPoints)
		if err != nil {
			return err
		}
		paths, err := report.PlotDescriptors(fsys, o.plotDir, f, points)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %d descriptor charts to %s", len(paths), o.plotDir)
	}

	if o.htmlPath != "" {
		if err := writeHTML(fsys, o.htmlPath, f, filepath.Base(o.input)); err != nil {
			return err
		}
	}
	return nil
}

// runStore serves -list-runs and -delete-run against the -db store.
func runStore(o *options, stdout io.Writer, clock timeutil.Clock) error {
	store, err := featuredb.Open(o.dbPath, clock)
	if err != nil {
		return err
	}
	defer store.Close()

	if o.deleteRun != "" {
		if err := store.DeleteRun(o.deleteRun); err != nil {
			return err
		}
		monitoring.Logf("deleted run %s from %s", o.deleteRun, o.dbPath)
	}
	if !o.listRuns {
		return nil
	}
	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(stdout)
	fmt.Fprintln(bw, "run_id\tsource\tvariant\tpoints\tparams\tcreated")
	for _, r := range runs {
		fmt.Fprintf(bw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Source, r.Variant, r.PointCount, r.Param, r.CreatedAt.UTC().Format(time.RFC3339))
	}
	return bw.Flush()
}

// parseTransform reads 16 comma separated row-major values and rejects
// anything that is not a rotation plus translation.
func parseTransform(s string) ([16]float64, error) {
	var T [16]float64
	parts := strings.Split(s, ",")
	if len(parts) != len(T) {
		return T, fmt.Errorf("invalid -transform: want 16 values, got %d", len(parts))
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return T, fmt.Errorf("invalid -transform value %q: %w", part, err)
		}
		T[i] = v
	}
	if !geometry.IsRigidTransform(T) {
		return T, errors.New("invalid -transform: not a rigid transform")
	}
	return T, nil
}

// loadInput reads a PCD cloud or a MOL2 cavity. Labels are only set for
// cavities.
func loadInput(fsys fsutil.FileSystem, path string) (*geometry.PointCloud, []string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcd":
		pc, err := pcd.ReadFile(fsys, path)
		return pc, nil, err
	case ".mol2":
		cavity, err := mol2.ReadFile(fsys, path)
		if err != nil {
			return nil, nil, err
		}
		pc, err := cavity.PointCloud()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return pc, cavity.Labels(), nil
	}
	return nil, nil, fmt.Errorf("unsupported input %q: want .pcd or .mol2", path)
}

func parsePoints(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid -plot-point %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeOutput(fsys fsutil.FileSystem, stdout io.Writer, path string, f *feature.Feature, labels []string) (err error) {
	if path == "-" || path == "" {
		return writeTSV(stdout, f, labels)
	}
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return writeTSV(out, f, labels)
}

// writeTSV writes a header of bin labels followed by one row per point.
func writeTSV(w io.Writer, f *feature.Feature, labels []string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("point")
	for r := 0; r < f.Dimension(); r++ {
		bw.WriteByte('\t')
		bw.WriteString(feature.BinLabel(r))
	}
	bw.WriteByte('\n')

	for i := 0; i < f.Num(); i++ {
		if labels != nil {
			bw.WriteString(labels[i])
		} else {
			bw.WriteString(strconv.Itoa(i))
		}
		for _, v := range f.Column(i) {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(v, 'g', 8, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeHTML(fsys fsutil.FileSystem, path string, f *feature.Feature, title string) (err error) {
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return report.RenderSummaryHTML(out, f, title)
}
