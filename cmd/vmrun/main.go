// Command vmrun wires command-line flags to the loader and VM: it reads
// a source file or binary image, optionally writes a binary image of
// the parsed program, constructs a VM instance over a (possibly empty)
// natives registry, and runs it to completion.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/config"
	"github.com/nboxvm/nbox/image"
	"github.com/nboxvm/nbox/lex"
	"github.com/nboxvm/nbox/vmcore"
	"github.com/nboxvm/nbox/vmerr"
)

var (
	flagPath       string
	flagOutput     string
	flagInclude    string
	flagConfig     string
	flagDisasm     bool
	flagDumpMacros bool
	flagNoColor    bool
	flagDebug      bool
)

var rootCmd = &cobra.Command{
	Use:   "vmrun",
	Short: "assemble and run a nbox program",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagPath, "path", "p", "", "source or image file to run (required)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the parsed program as a binary image to this path")
	rootCmd.Flags().StringVarP(&flagInclude, "include", "I", "", "include search root for #\"path\" directives")
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "TOML file overriding stack/heap capacities")
	rootCmd.Flags().BoolVar(&flagDisasm, "disasm", false, "print the parsed program and exit without running it")
	rootCmd.Flags().BoolVar(&flagDumpMacros, "dump-macros", false, "print all macro definitions seen while preprocessing and exit without running it")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "disable colored diagnostics")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "print the full error stack trace on failure")
	_ = rootCmd.MarkFlagRequired("path")
}

// isSourceFile reports whether path should be parsed as assembly source
// rather than loaded as a pre-assembled binary image. There is no magic
// number in the image format to sniff, so the extension decides: a
// ".asm", ".nbox" or extensionless path is source, anything else is an
// image.
func isSourceFile(path string) bool {
	switch filepath.Ext(path) {
	case ".asm", ".nbox", "":
		return true
	default:
		return false
	}
}

// loadProgram parses path into a Program. pp is the Preprocessor used to
// expand it, or nil when path was loaded as a pre-assembled binary image
// (which carries no macro definitions to dump).
func loadProgram(path, includeDir string) (prog *asm.Program, pp *lex.Preprocessor, err error) {
	if !isSourceFile(path) {
		prog, err = image.Load(path)
		return prog, nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied source path
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open source file")
	}

	pp = lex.NewPreprocessor(includeDir)
	lines, err := pp.Preprocess(path, data)
	if err != nil {
		return nil, pp, err
	}
	prog, err = asm.Parse(lines)
	return prog, pp, err
}

// formatMacroDump renders macros (already sorted by MacroTable.Dump) one
// per line as "name: single" or "name: multi(params...)".
func formatMacroDump(macros []*lex.Macro) string {
	var b strings.Builder
	for _, m := range macros {
		switch m.Kind {
		case lex.Multi:
			fmt.Fprintf(&b, "%s: multi(%s)\n", m.Name, strings.Join(m.Params, ", "))
		default:
			fmt.Fprintf(&b, "%s: single\n", m.Name)
		}
	}
	return b.String()
}

func run(cmd *cobra.Command, args []string) error {
	color.NoColor = flagNoColor

	prog, pp, err := loadProgram(flagPath, flagInclude)
	if err != nil {
		return err
	}

	if flagDumpMacros {
		if pp == nil {
			return errors.New("--dump-macros requires a source file, not a binary image")
		}
		fmt.Print(formatMacroDump(pp.Macros.Dump()))
		return nil
	}

	if flagOutput != "" {
		if err := image.Save(flagOutput, prog); err != nil {
			return err
		}
	}

	if flagDisasm {
		fmt.Print(asm.Disassemble(prog))
		return nil
	}

	limits, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	vm, err := vmcore.New(prog, vmcore.NewNatives(), limits.Options()...)
	if err != nil {
		return err
	}

	return vm.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportAndExit(err)
	}
}

func reportAndExit(err error) {
	if flagDebug {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else if ve, ok := err.(*vmerr.Error); ok {
		fmt.Fprintln(os.Stderr, red(ve.Error()))
	} else {
		fmt.Fprintln(os.Stderr, red(err.Error()))
	}
	os.Exit(1)
}

func red(s string) string {
	return color.New(color.FgRed).Sprint(s)
}
