// cmd/qbra/main.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// qbra builds BRA protection surfaces for the navaids described in a job
// file and writes them out in one of several formats, or serves the same
// functionality over HTTP.

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/log"
	"github.com/qbra/qbra/pkg/server"
	"github.com/qbra/qbra/pkg/util"
)

var (
	jobFilename       = flag.String("job", "", "filename of JSON file with the build requests")
	outFilename       = flag.String("out", "", "output filename (stdout if empty, where the format allows)")
	outputFormat      = flag.String("format", "geojson", "output format: geojson, archive, stl, json")
	obstaclesFilename = flag.String("obstacles", "", "filename of JSON file with obstacles to check against the built surfaces")
	logLevel          = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir            = flag.String("logdir", "", "log file directory")
	lint              = flag.Bool("lint", false, "check the facility catalog and the job file without building")
	listFacilities    = flag.Bool("listfacilities", false, "list the known facilities and their default parameters")
	runServer         = flag.Bool("serve", false, "run the HTTP surface server")
	serverPort        = flag.Int("port", server.DefaultPort, "port to listen on when running the server")
	dump              = flag.Bool("dump", false, "dump the resolved build requests")
	parallelism       = flag.Int("parallel", 0, "maximum number of concurrent builds (number of CPUs if 0)")
	cpuprofile        = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile        = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	} else if profiler.Active() {
		lg.Info("profiling", slog.String("cpu", *cpuprofile), slog.String("mem", *memprofile))
	}
	defer profiler.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *listFacilities:
		printFacilities(os.Stdout)

	case *lint:
		var e util.ErrorLogger
		bra.CheckCatalog(&e)
		if *jobFilename != "" {
			loadRequests(*jobFilename, lg, &e)
		}
		if e.HaveErrors() {
			e.PrintErrors(os.Stderr, lg)
			exit(&profiler, 1)
		}
		fmt.Println("no errors found")

	case *runServer:
		srv, err := server.New(lg, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			exit(&profiler, 1)
		}
		srv.Parallelism = *parallelism
		if err := srv.ListenAndServe(ctx, *serverPort); err != nil {
			lg.Errorf("server: %v", err)
			fmt.Fprintf(os.Stderr, "%v\n", err)
			exit(&profiler, 1)
		}

	case *jobFilename != "":
		if err := runJob(ctx, lg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			exit(&profiler, 1)
		}

	default:
		flag.Usage()
		exit(&profiler, 2)
	}
}

// exit runs deferred cleanup that os.Exit would otherwise skip.
func exit(p *util.Profiler, code int) {
	p.Cleanup()
	os.Exit(code)
}
