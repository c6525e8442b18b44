// Command esio-rotate installs a finished checkpoint into an indexed
// restart slot, shifting older restarts outward.
//
// Usage:
//
//	esio-rotate -src restart.esio -template 'chk###.esio' -keep 5
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	esio "github.com/Tiancheng-Luo/go-esio"
	"github.com/Tiancheng-Luo/go-esio/internal/logging"
)

func main() {
	var (
		src      = flag.String("src", "", "Path of the newly-written restart file")
		template = flag.String("template", "", "Destination template containing one run of '#'")
		keep     = flag.Int("keep", 1, "Number of restart files to retain")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if *src == "" || *template == "" {
		fmt.Fprintln(os.Stderr, "esio-rotate: -src and -template are required")
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		logging.SetLevel(logging.LevelDebug)
	}

	// Silence the library's error log; the returned error is printed once
	// below and the exit status is this tool's interface.
	esio.SetHandler(nil)

	if err := esio.RestartRename(*src, *template, *keep); err != nil {
		log.Fatalf("esio-rotate: %v", err)
	}
}
