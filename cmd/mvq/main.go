package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akalin/mvq/errorcode"
	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/gf2poly"
	"github.com/akalin/mvq/hekey"
	"github.com/akalin/mvq/parallel"
	"github.com/akalin/mvq/prng"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type logDelegate struct {
	verbose bool
}

func (d logDelegate) OnAttempt(attempt, maxAttempts int, err error) {
	if err != nil {
		if d.verbose {
			fmt.Printf("Rejected matrix %d/%d: %s\n", attempt, maxAttempts, err)
		}
	} else {
		fmt.Printf("Accepted matrix %d/%d\n", attempt, maxAttempts)
	}
}

func (logDelegate) OnPrivateKey(params hekey.Params, generatorTerms int) {
	fmt.Printf("Generated private key (%s): generator has %d terms\n", params, generatorTerms)
}

func (logDelegate) OnPublicKey(params hekey.Params, encrypterTerms, pipelineTerms int) {
	fmt.Printf("Generated public key (%s): encrypter has %d terms, noise pipeline has %d terms\n", params, encrypterTerms, pipelineTerms)
}

func (d logDelegate) OnCompose(stats gf2poly.ComposeStats) {
	if !d.verbose {
		return
	}
	fmt.Printf("Composed %d outer terms over %d inner terms with %d worker(s): %d terms discovered, %d kept, %s\n",
		stats.OuterTerms, stats.InnerTerms, stats.Workers, stats.DiscoveredTerms, stats.ResultTerms, stats.Elapsed)
}

func printUsageAndExit(name string, exitCode errorcode.Errorcode) {
	name = filepath.Base(name)
	fmt.Printf(`
Usage:
  %s k(eygen) [options]
  %s r(oundtrip) [options]
  %s b(ench) [options]

Presets: %s

Run a subcommand with -h to list its options.

`, name, name, name, strings.Join(hekey.PresetNames(), ", "))
	os.Exit(int(exitCode))
}

func exitOnError(err error, what string, exitCode errorcode.Errorcode) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %s\n", what, err)
		os.Exit(int(exitCode))
	}
}

type keyFlags struct {
	preset  *string
	seed    *int64
	workers *int
	verbose *bool
}

func addKeyFlags(flagSet *flag.FlagSet) keyFlags {
	return keyFlags{
		preset:  flagSet.String("preset", "small", "parameter preset"),
		seed:    flagSet.Int64("seed", 0, "seed for reproducible keys; 0 uses system randomness"),
		workers: flagSet.Int("workers", 0, "number of worker goroutines; 0 uses the CPU count"),
		verbose: flagSet.Bool("v", false, "log rejected samples and compositions"),
	}
}

func (f keyFlags) source() (*prng.Source, error) {
	if *f.seed == 0 {
		return prng.New()
	}
	return prng.NewKeyedFromInt(*f.seed)
}

func (f keyFlags) generate(ctx context.Context) (*prng.Source, *hekey.PrivateKey, *hekey.PublicKey) {
	params, err := hekey.Lookup(*f.preset)
	exitOnError(err, "Preset", errorcode.InvalidCommandLineArguments)

	pool := parallel.NewPool(*f.workers)
	fmt.Printf("Using %d worker(s) on %s\n", pool.Size(), parallel.Describe())

	delegate := logDelegate{*f.verbose}
	builder, err := hekey.NewKeyBuilder(params, pool, delegate, delegate)
	exitOnError(err, "Key builder", errorcode.InvalidCommandLineArguments)

	src, err := f.source()
	exitOnError(err, "Randomness", errorcode.LogicError)

	start := time.Now()
	sk, pk, err := builder.Generate(ctx, src)
	exitOnError(err, "Key generation", errorcode.KeyGenerationFailed)
	fmt.Printf("Generated key pair in %s\n", time.Since(start))
	return src, sk, pk
}

func keygen(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("keygen", flag.ExitOnError)
	kf := addKeyFlags(flagSet)
	flat := flagSet.Bool("flat", false, "also flatten the encrypter")
	xor := flagSet.Bool("xor", false, "also derive the homomorphic xor function")
	printKey := flagSet.Bool("print", false, "print the private matrices")
	exitOnError(flagSet.Parse(args), "Flag", errorcode.InvalidCommandLineArguments)

	_, sk, pk := kf.generate(ctx)

	if *printKey {
		fmt.Printf("D =\n%s\nE1 =\n%s\nE2 =\n%s\n", sk.D(), sk.E1(), sk.E2())
	}

	if *flat {
		start := time.Now()
		f, err := pk.FlatEncrypter(ctx)
		exitOnError(err, "Flatten", errorcode.LogicError)
		fmt.Printf("Flat encrypter: %d -> %d bits, order %d, %d terms (%s)\n",
			f.InputLength(), f.OutputLength(), f.Order(), f.Terms(), time.Since(start))
	}

	if *xor {
		start := time.Now()
		h, err := hekey.HomomorphicXor(ctx, sk, pk)
		exitOnError(err, "Homomorphic xor", errorcode.LogicError)
		fmt.Printf("Homomorphic xor: %d -> %d bits, order %d, %d terms (%s)\n",
			h.InputLength(), h.OutputLength(), h.Order(), h.Terms(), time.Since(start))
	}
}

func roundtrip(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	kf := addKeyFlags(flagSet)
	count := flagSet.Int("n", 100, "number of plaintexts")
	xor := flagSet.Bool("xor", false, "also check the homomorphic xor on each pair of plaintexts")
	exitOnError(flagSet.Parse(args), "Flag", errorcode.InvalidCommandLineArguments)

	src, sk, pk := kf.generate(ctx)
	params := sk.Params()

	var h gf2poly.Function
	if *xor {
		var err error
		h, err = hekey.HomomorphicXor(ctx, sk, pk)
		exitOnError(err, "Homomorphic xor", errorcode.LogicError)
	}

	failures := 0
	var prevX, prevY gf2.Vector
	for i := 0; i < *count; i++ {
		x, err := gf2.RandomVector(src, params.PlaintextBits)
		exitOnError(err, "Randomness", errorcode.LogicError)
		y, err := pk.Encrypt(src, x)
		exitOnError(err, "Encrypt", errorcode.LogicError)
		decrypted, err := sk.Decrypt(y)
		exitOnError(err, "Decrypt", errorcode.LogicError)
		if !decrypted.Equal(x) {
			failures++
			fmt.Printf("Round trip %d failed: %s decrypted to %s\n", i, x, decrypted)
		}

		if *xor && i > 0 {
			s, err := gf2.RandomVector(src, params.SeedBits)
			exitOnError(err, "Randomness", errorcode.LogicError)
			z, err := h.Apply(prevY.Concat(y, s))
			exitOnError(err, "Homomorphic xor", errorcode.LogicError)
			decrypted, err := sk.Decrypt(z)
			exitOnError(err, "Decrypt", errorcode.LogicError)
			if expected := prevX.Xor(x); !decrypted.Equal(expected) {
				failures++
				fmt.Printf("Homomorphic xor %d failed: expected %s, got %s\n", i, expected, decrypted)
			}
		}
		prevX, prevY = x, y
	}

	fmt.Printf("Round trip result: %d/%d failures\n", failures, *count)
	if failures > 0 {
		os.Exit(int(errorcode.RoundTripFailed))
	}
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, field := range strings.Split(s, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		if size < 2 {
			return nil, fmt.Errorf("size %d too small", size)
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

type benchResult struct {
	size                 int
	sequential, parallel time.Duration
	terms                int
}

func bench(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("bench", flag.ExitOnError)
	sizesFlag := flagSet.String("sizes", "32,64,128,256", "comma-separated inner output sizes")
	outerOrder := flagSet.Int("outer-order", 2, "order of the outer function")
	innerOrder := flagSet.Int("inner-order", 1, "order of the inner function")
	outerTerms := flagSet.Int("outer-terms", 512, "number of outer terms")
	innerTerms := flagSet.Int("inner-terms", 64, "number of inner terms")
	outputs := flagSet.Int("outputs", 64, "number of outer outputs")
	workers := flagSet.Int("workers", 0, "number of worker goroutines; 0 uses the CPU count")
	seed := flagSet.Int64("seed", 1, "seed for the random functions")
	outPath := flagSet.String("out", "compose_bench.html", "output HTML file")
	exitOnError(flagSet.Parse(args), "Flag", errorcode.InvalidCommandLineArguments)

	sizes, err := parseSizes(*sizesFlag)
	exitOnError(err, "Sizes", errorcode.InvalidCommandLineArguments)

	pool := parallel.NewPool(*workers)
	fmt.Printf("Using %d worker(s) on %s\n", pool.Size(), parallel.Describe())

	src, err := prng.NewKeyedFromInt(*seed)
	exitOnError(err, "Randomness", errorcode.LogicError)

	var results []benchResult
	for _, size := range sizes {
		f, err := gf2poly.RandomFunction(src, size, *outputs, *outerOrder, *outerTerms)
		exitOnError(err, "Outer function", errorcode.InvalidCommandLineArguments)
		var g gf2poly.Function
		if *innerOrder == 1 {
			g, err = gf2poly.RandomLinear(src, size/2, size)
		} else {
			g, err = gf2poly.RandomFunction(src, size/2, size, *innerOrder, *innerTerms)
		}
		exitOnError(err, "Inner function", errorcode.InvalidCommandLineArguments)

		start := time.Now()
		h, err := gf2poly.NewComposer(parallel.SequentialPool(), nil).Compose(ctx, f, g)
		exitOnError(err, "Compose", errorcode.LogicError)
		sequential := time.Since(start)

		start = time.Now()
		h2, err := gf2poly.NewComposer(pool, nil).Compose(ctx, f, g)
		exitOnError(err, "Compose", errorcode.LogicError)
		par := time.Since(start)

		if !h.Equal(h2) {
			exitOnError(fmt.Errorf("results differ for size %d", size), "Compose", errorcode.LogicError)
		}
		fmt.Printf("size=%d: %d terms, sequential %s, parallel %s\n", size, h.Terms(), sequential, par)
		results = append(results, benchResult{size, sequential, par, h.Terms()})
	}

	exitOnError(renderBench(*outPath, pool.Size(), results), "Render", errorcode.FileIOError)
	fmt.Printf("Wrote %s\n", *outPath)
}

func renderBench(path string, workers int, results []benchResult) error {
	page := components.NewPage().SetPageTitle("Composition time")

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Composition time",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Inner output bits"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Time (ms)",
			Type:      "value",
			AxisLabel: &opts.AxisLabel{Formatter: "{value}"},
		}),
	)

	xs := make([]string, 0, len(results))
	sequential := make([]opts.LineData, 0, len(results))
	par := make([]opts.LineData, 0, len(results))
	for _, r := range results {
		xs = append(xs, strconv.Itoa(r.size))
		sequential = append(sequential, opts.LineData{Value: r.sequential.Seconds() * 1000})
		par = append(par, opts.LineData{Value: r.parallel.Seconds() * 1000})
	}
	line.SetXAxis(xs).
		AddSeries("sequential", sequential).
		AddSeries(fmt.Sprintf("%d workers", workers), par)
	page.AddCharts(line)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func main() {
	name := os.Args[0]
	if len(os.Args) < 2 {
		printUsageAndExit(name, errorcode.InvalidCommandLineArguments)
	}

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	switch strings.ToLower(cmd) {
	case "k":
		fallthrough
	case "keygen":
		keygen(ctx, args)

	case "r":
		fallthrough
	case "roundtrip":
		roundtrip(ctx, args)

	case "b":
		fallthrough
	case "bench":
		bench(ctx, args)

	case "h":
		fallthrough
	case "help":
		printUsageAndExit(name, errorcode.Success)

	default:
		printUsageAndExit(name, errorcode.InvalidCommandLineArguments)
	}
}
