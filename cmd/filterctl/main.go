// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command filterctl runs a configured filter pipeline over a file,
// exercising the pkg/pipeline forward/reverse runner end to end.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/tiledb-go/filterpipeline/pkg/pipeline"
)

var (
	mode       = flag.String("mode", "", "forward | reverse")
	configPath = flag.String("config", "", "path to the TOML run config")
	inPath     = flag.String("in", "", "input file")
	outPath    = flag.String("out", "", "output file")
	spillDir   = flag.String("spill-dir", "", "directory for byte-sink spill files (defaults to the OS temp dir)")
	verbose    = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(); err != nil {
		log.WithError(err).Fatal("filterctl: run failed")
	}
}

func run() error {
	if *mode != "forward" && *mode != "reverse" {
		return fmt.Errorf("filterctl: -mode must be \"forward\" or \"reverse\"")
	}
	if *configPath == "" || *inPath == "" || *outPath == "" {
		return fmt.Errorf("filterctl: -config, -in, and -out are required")
	}

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		return err
	}

	dt, err := parseDatatype(cfg.Datatype)
	if err != nil {
		return err
	}

	var key []byte
	if cfg.KeyFile != "" {
		key, err = os.ReadFile(cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("filterctl: read key file: %w", err)
		}
	}

	p := pipeline.New(dt, cfg.MaxChunkSize)
	for _, spec := range cfg.Filters {
		f, err := buildFilter(spec, key)
		if err != nil {
			return err
		}
		if err := p.Add(f); err != nil {
			return fmt.Errorf("filterctl: add filter %q: %w", spec.Name, err)
		}
	}
	log.WithFields(log.Fields{"filters": len(cfg.Filters), "datatype": cfg.Datatype}).Info("pipeline assembled")

	in, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("filterctl: read input: %w", err)
	}

	runCfg := &pipeline.Config{
		SkipChecksumValidation: cfg.SkipChecksumValidation,
		FormatVersion:          cfg.FormatVersion,
		WorkerCount:            cfg.WorkerCount,
	}

	var out []byte
	if *mode == "forward" {
		cellSize := cfg.CellSize
		if cellSize <= 0 {
			cellSize = dt.ByteWidth()
		}
		tile := &pipeline.Tile{Plain: in, CellSize: cellSize}
		out, err = pipeline.Forward(runCfg, p, tile)
	} else {
		out, err = pipeline.Reverse(runCfg, p, in)
	}
	if err != nil {
		return fmt.Errorf("filterctl: %s: %w", *mode, err)
	}

	sink := pipeline.NewFramedByteSink(*spillDir, 16<<20)
	defer sink.Close()
	if _, err := sink.Write(out); err != nil {
		return fmt.Errorf("filterctl: buffer output: %w", err)
	}
	if err := sink.FlushToFile(*outPath); err != nil {
		return fmt.Errorf("filterctl: write output: %w", err)
	}

	log.WithFields(log.Fields{"in_bytes": len(in), "out_bytes": len(out)}).Info("done")
	return nil
}
