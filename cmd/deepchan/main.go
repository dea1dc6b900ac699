// deepchan reformats the channel layout of deep image snapshots.
//
// Renderers write Monte-Carlo sample histograms with the sample count
// stored as the last channel of every pixel. The denoiser wants the
// histogram and the count as separate images. deepchan converts between
// the two forms and fixes the ABGR layer order of Blender histograms.
//
// Usage:
//
//	deepchan [-v] [-j n] <command> [options] args
//
// Commands:
//
//	separate [--blender] [-c codec] [-l level] infile histofile countfile
//	convert  [-c codec] [-l level] infile outfile
//	merge    [-c codec] [-l level] histofile countfile outfile
//	info     file [file ...]
//
// Exit codes:
//
//	0: success
//	1: an operation failed
//	2: invalid command line
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/go-deepimage/compression"
	"github.com/mrjoshuak/go-deepimage/deep"
	"github.com/mrjoshuak/go-deepimage/layout"
	"github.com/mrjoshuak/go-deepimage/snapshot"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks command line mistakes, as opposed to failed operations.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func run(args []string, stdout, stderr io.Writer) int {
	prev := layout.Logger()
	defer layout.SetLogger(prev)

	root := newRootCmd()
	// cobra reads os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Run 'deepchan --help' for usage.\n")
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// app holds the global options shared by every command.
type app struct {
	verbose bool
	workers int
	tr      layout.Transformer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "deepchan",
		Short:         "Separate, convert and merge deep image channel layouts",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			return usageErrorf("missing command")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.workers < 0 {
				return usageErrorf("invalid worker count: %d", a.workers)
			}
			a.tr = layout.Transformer{Workers: a.workers}
			if a.verbose {
				h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
				layout.SetLogger(slog.New(h))
			}
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().IntVarP(&a.workers, "workers", "j", 1, "number of worker goroutines (0 = all CPUs)")

	root.AddCommand(
		a.separateCmd(),
		a.convertCmd(),
		a.mergeCmd(),
		a.infoCmd(),
	)
	return root
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// addOutputFlags registers the codec and level options of writing commands.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("codec", "c", "zstd", "output codec (none, zlib, zstd)")
	cmd.Flags().IntP("level", "l", int(compression.LevelDefault), "compression level (-2 to 9, -1 = codec default)")
}

func outputOptions(cmd *cobra.Command) (snapshot.Options, error) {
	name, _ := cmd.Flags().GetString("codec")
	lvl, _ := cmd.Flags().GetInt("level")

	codec, err := snapshot.ParseCodec(name)
	if err != nil {
		return snapshot.Options{}, usageErrorf("invalid codec %q (valid: none, zlib, zstd)", name)
	}
	level := compression.Level(lvl)
	if !level.Valid() {
		return snapshot.Options{}, usageErrorf("invalid compression level: %d", lvl)
	}
	return snapshot.Options{Codec: codec, Level: level}, nil
}

// read and write log through the logger installed by --verbose, which
// also carries the debug records of the layout package.
func (a *app) read(name string) (*deep.Image, error) {
	img, err := snapshot.ReadFile(name)
	if err != nil {
		return nil, err
	}
	layout.Logger().Debug("deepchan: read", "file", name, "shape", img.Shape().String())
	return img, nil
}

func (a *app) write(name string, img *deep.Image, opts snapshot.Options) error {
	if err := snapshot.WriteFile(name, img, opts); err != nil {
		return err
	}
	layout.Logger().Debug("deepchan: wrote",
		"file", name,
		"shape", img.Shape().String(),
		"codec", opts.Codec.String())
	return nil
}

func (a *app) separateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "separate infile histofile countfile",
		Short: "Split the sample count channel off a histogram",
		Long: `Split an image whose last channel is the per-pixel sample count into a
histogram image and a depth 1 count image.

With --blender the input layers are ABGR, as written by Blender's
multilayer output, and the histogram is written as RGB.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			blender, _ := cmd.Flags().GetBool("blender")

			src, err := a.read(args[0])
			if err != nil {
				return err
			}
			var histo, count *deep.Image
			if blender {
				histo, count, err = a.tr.SeparateBlender(src)
			} else {
				histo, count, err = a.tr.Separate(src)
			}
			if err != nil {
				return err
			}
			if err := a.write(args[1], histo, opts); err != nil {
				return err
			}
			return a.write(args[2], count, opts)
		},
	}
	cmd.Flags().BoolP("blender", "b", false, "input layers are ABGR, as written by Blender")
	addOutputFlags(cmd)
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert infile outfile",
		Short: "Reorder ABGR layers to RGB",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			src, err := a.read(args[0])
			if err != nil {
				return err
			}
			dst, err := a.tr.ConvertFromABGR(src)
			if err != nil {
				return err
			}
			return a.write(args[1], dst, opts)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func (a *app) mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge histofile countfile outfile",
		Short: "Append a sample count image to a histogram",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			histo, err := a.read(args[0])
			if err != nil {
				return err
			}
			count, err := a.read(args[1])
			if err != nil {
				return err
			}
			dst, err := a.tr.Merge(histo, count)
			if err != nil {
				return err
			}
			return a.write(args[2], dst, opts)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info file [file ...]",
		Short: "Print the shape and codec of snapshot files",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, name := range args {
				h, err := snapshot.ReadFileHeader(name)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					failed++
					continue
				}
				raw := 4 * uint64(h.Shape.Width) * uint64(h.Shape.Height) * uint64(h.Shape.Depth)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %s, %d bytes (%d uncompressed)\n",
					name, h.Shape, h.Codec, h.PayloadSize, raw)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be read", failed, len(args))
			}
			return nil
		},
	}
}
