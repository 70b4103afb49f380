package emulator

import (
	"errors"

	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	// Configuration errors
	ErrConfigKey      = errors.New(f("unknown configuration key"))
	ErrConfigMemory   = errors.New(f("memory window invalid"))
	ErrConfigEntry    = errors.New(f("entry point outside memory window"))
	ErrConfigAlign    = errors.New(f("address not word aligned"))
	ErrConfigMaxInsts = errors.New(f("instruction limit negative"))

	// Monitor errors
	ErrCommandUnknown  = errors.New(f("unknown command"))
	ErrCommandArgs     = errors.New(f("wrong number of arguments"))
	ErrCommandArgument = errors.New(f("invalid argument"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrArgument reports a monitor argument that could not be parsed.
type ErrArgument string

func (err ErrArgument) Error() string {
	return f("invalid argument '%v'", string(err))
}

func (err ErrArgument) Unwrap() error {
	return ErrCommandArgument
}

// ErrCommand reports a monitor command that could not be run.
type ErrCommand struct {
	Name string
	Err  error
}

func (err *ErrCommand) Error() string {
	return f("%v: %v", err.Name, err.Err)
}

func (err *ErrCommand) Unwrap() error {
	return err.Err
}
