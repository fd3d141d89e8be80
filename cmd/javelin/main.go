package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/javelin-rt/javelin/classfile"
	"github.com/javelin-rt/javelin/errors"
)

var rootCmd = &cobra.Command{
	Use:          "javelin",
	Short:        "Inspect, verify and disassemble JVM class files",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			log, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			classfile.SetLogger(log)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.class>",
	Short: "Print a summary of a class file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cf, err := parseFile(cmd, args[0])
		if err != nil {
			return err
		}
		return inspect(cf)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file.class>",
	Short: "Run the constant pool and structural verification passes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cf, err := parseFile(cmd, args[0])
		if err != nil {
			return err
		}
		report, clean := verifyReport(cf)
		fmt.Print(report)
		if !clean {
			return fmt.Errorf("%s failed verification", args[0])
		}
		return nil
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.class>",
	Short: "Disassemble every method body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cf, err := parseFile(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Print(classfile.Disassemble(cf))
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse <file.class>",
	Short: "Browse a class file interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("browse needs a terminal; use inspect or disasm instead")
		}
		return runInteractive(args[0])
	},
}

func parseFile(cmd *cobra.Command, path string) (*classfile.ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	strict, _ := cmd.Flags().GetBool("strict")
	cf, err := classfile.ParseClassWithOptions(data, classfile.DecodeOptions{
		StrictAttributes: strict,
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cf, nil
}

func inspect(cf *classfile.ClassFile) error {
	name, err := cf.ClassName()
	if err != nil {
		return err
	}

	fmt.Printf("class %s\n", name)
	fmt.Printf("  version: %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	fmt.Printf("  flags:   %s\n", classfile.FormatClassFlags(cf.AccessFlags))

	if super, err := cf.SuperClassName(); err == nil && super != "" {
		fmt.Printf("  super:   %s\n", super)
	}
	if ifaces, err := cf.InterfaceNames(); err == nil && len(ifaces) > 0 {
		fmt.Printf("  implements: %s\n", strings.Join(ifaces, ", "))
	}

	fmt.Printf("  constant pool: %d slots\n", cf.ConstantPool.Count())
	fmt.Printf("  fields: %d, methods: %d\n", len(cf.Fields), len(cf.Methods))

	for _, attr := range cf.Attributes {
		fmt.Printf("  attribute: %s\n", attr.AttributeName())
	}
	return nil
}

// verifyReport runs both verification passes and formats their findings.
func verifyReport(cf *classfile.ClassFile) (string, bool) {
	var b strings.Builder
	clean := true

	if err := cf.VerifyConstantPool(); err != nil {
		clean = false
		var verr *errors.VerificationError
		if stderrors.As(err, &verr) {
			fmt.Fprintf(&b, "constant pool: %d issue(s)\n", len(verr.Issues))
			for _, issue := range verr.Issues {
				fmt.Fprintf(&b, "  %v\n", issue)
			}
		} else {
			fmt.Fprintf(&b, "constant pool: %v\n", err)
		}
	} else {
		b.WriteString("constant pool: ok\n")
	}

	if err := cf.VerifyStructure(); err != nil {
		clean = false
		fmt.Fprintf(&b, "structure: %v\n", err)
	} else {
		b.WriteString("structure: ok\n")
	}

	return b.String(), clean
}

func main() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("strict", false, "Reject attributes with unknown names")
	rootCmd.AddCommand(inspectCmd, verifyCmd, disasmCmd, browseCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
