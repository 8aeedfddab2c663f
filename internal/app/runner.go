package app

import (
	"context"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// IRunner represents a runnable command in the application layer.
type IRunner interface {
	Name() string
	Desc() string
	Init(f *pflag.FlagSet)
	SetIO(in io.Reader, out, errOut io.Writer)
	PreRun(ctx context.Context) error
	Run(ctx context.Context) error
	PostRun(ctx context.Context) error
}

// IArgsRunner is implemented by runners that take positional arguments.
type IArgsRunner interface {
	IRunner
	Usage() string
	SetArgs(args []string) error
}

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (s *streams) SetIO(in io.Reader, out, errOut io.Writer) {
	s.in, s.out, s.errOut = in, out, errOut
}

func (s *streams) stdin() io.Reader {
	if s.in == nil {
		return os.Stdin
	}
	return s.in
}

func (s *streams) stdout() io.Writer {
	if s.out == nil {
		return os.Stdout
	}
	return s.out
}

func (s *streams) stderr() io.Writer {
	if s.errOut == nil {
		return os.Stderr
	}
	return s.errOut
}
