// cstructdump is a CLI tool for loading a cstruct definition file and
// parsing bytes against one of its declared types.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

var (
	defFile string
	bigEndian bool
	pointerSize int
	verbose bool
)

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func loadRegistry() (*cstruct.Registry, error) {
	endian := cstruct.WithEndianness(types.LittleEndian)
	if bigEndian {
		endian = cstruct.WithEndianness(types.BigEndian)
	}
	r := cstruct.New(endian, cstruct.WithPointerSize(pointerSize), cstruct.WithLogger(newLogger()))
	if defFile == "" {
		return r, nil
	}
	text, err := os.ReadFile(defFile)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	if err := r.Load(string(text)); err != nil {
		return nil, fmt.Errorf("loading definitions: %w", err)
	}
	return r, nil
}

func main() {
	root := &cobra.Command{
		Use:   "cstructdump",
		Short: "Parse and inspect binary data described by cstruct definitions",
	}
	root.PersistentFlags().StringVarP(&defFile, "def", "d", "", "path to a cstruct definition file")
	root.PersistentFlags().BoolVar(&bigEndian, "big-endian", false, "use big-endian as the registry default")
	root.PersistentFlags().IntVar(&pointerSize, "pointer-size", 8, "pointer width in bytes")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log parse warnings")

	root.AddCommand(dumpCmd(), typesCmd(), defCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dumpCmd() *cobra.Command {
	var typeName string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "dump <hex-bytes>",
		Short: "Parse hex-encoded bytes against a named type and print the value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRegistry()
			if err != nil {
				return err
			}
			t, ok := r.Lookup(typeName)
			if !ok {
				return fmt.Errorf("type %q is not declared", typeName)
			}
			data, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("decoding hex input: %w", err)
			}
			v, err := r.Decode(t, data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", typeName, err)
			}
			if pretty {
				fmt.Println(cstruct.Dump(v))
			} else {
				fmt.Printf("%#v\n", v)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "name of the declared type to parse against")
	cmd.MarkFlagRequired("type")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "render the value instead of Go's default formatting")
	return cmd
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List declared type names",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRegistry()
			if err != nil {
				return err
			}
			for _, name := range r.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func defCmd() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "def",
		Short: "Print a loaded type's static size and alignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRegistry()
			if err != nil {
				return err
			}
			t, ok := r.Lookup(typeName)
			if !ok {
				return fmt.Errorf("type %q is not declared", typeName)
			}
			size := "dynamic"
			if !t.IsDynamic() {
				size = fmt.Sprintf("%d", t.Size())
			}
			fmt.Printf("%s: size=%s alignment=%d\n", t.Name(), size, t.Alignment())
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "name of the declared type to describe")
	cmd.MarkFlagRequired("type")
	return cmd
}
