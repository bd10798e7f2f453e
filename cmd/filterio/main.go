// Command filterio saves, loads, exports and imports filter designs.
//
// Every command works on a state file (.npz or .pkl). Without -state a
// command starts from the default moving-average FIR.
//
// Usage:
//
//	filterio formats -ft IIR
//	filterio save -state lp.pkl lp.npz               # convert a state file
//	filterio load lp.npz                              # print the stored keys
//	filterio export -state lp.npz coeffs.coe          # Xilinx .coe (FIR only)
//	filterio export -state lp.npz -delim ";" ba.csv
//	filterio import -state lp.npz measured.wav        # replace "ba" in lp.npz
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
)

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) < minRequiredArgs {
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	opts := options{}
	fs.StringVar(&opts.statePath, "state", "", "State file (.npz or .pkl) to start from")
	fs.StringVar(&opts.chosen, "type", "", "File type filter text, e.g. \"Pickled (*.pkl)\"; defaults to the file extension")
	fs.StringVar(&opts.filterType, "ft", defaultFilterType, "Filter type for 'formats': FIR or IIR")
	fs.StringVar(&opts.delimiter, "delim", "", "CSV field delimiter")
	fs.IntVar(&opts.bitDepth, "bits", 0, "Impulse response WAV bit depth: 16, 24 or 32")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	switch args[0] {
	case cmdFormats:
		return printFormats(os.Stdout, opts.filterType)
	case cmdSave, cmdLoad, cmdExport, cmdImport:
		if fs.NArg() != fileArgs {
			return errUsage
		}
		return runFileCommand(args[0], fs.Arg(0), &opts)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] [file]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  formats   list the file types of every operation\n")
	fmt.Fprintf(os.Stderr, "  save      write the state to file (.npz, .pkl)\n")
	fmt.Fprintf(os.Stderr, "  load      read a state file and print its keys\n")
	fmt.Fprintf(os.Stderr, "  export    write the coefficients to file\n")
	fmt.Fprintf(os.Stderr, "  import    read coefficients from file into the -state file\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	fmt.Fprintf(os.Stderr, "  -state, -type, -ft, -delim, -bits, -v\n")
}
