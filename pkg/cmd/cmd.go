package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"

	"github.com/learningequality/kolibri-content/pkg/progress"
)

// Cmd adapts a `func(ctx, opts) error` into a mitchellh/cli command,
// with the opts struct parsed by go-flags from its field tags.
type Cmd struct {
	name, syn string
	f         reflect.Value

	opts   reflect.Value
	parser *flags.Parser
}

func New(name, syn string, f interface{}) *Cmd {
	rv := reflect.ValueOf(f)

	if rv.Kind() != reflect.Func {
		panic("command handler must be a function")
	}

	rt := rv.Type()

	if rt.NumIn() != 2 || rt.NumOut() != 1 {
		panic("command handler must be func(ctx, opts) error")
	}

	in := rt.In(1)

	if in.Kind() != reflect.Struct {
		panic("command options must be a struct")
	}

	sv := reflect.New(in)

	parser := flags.NewNamedParser(name, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = syn
	parser.LongDescription = syn

	_, err := parser.AddGroup("Options", "", sv.Interface())
	if err != nil {
		panic(err)
	}

	return &Cmd{
		name:   name,
		syn:    syn,
		f:      rv,
		opts:   sv,
		parser: parser,
	}
}

func (c *Cmd) Help() string {
	var buf bytes.Buffer
	c.parser.WriteHelp(&buf)
	return buf.String()
}

func (c *Cmd) Synopsis() string {
	return c.syn
}

func (c *Cmd) Run(args []string) int {
	_, err := c.parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			return 0
		}

		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelOnSignal(cancel, os.Interrupt, unix.SIGQUIT, unix.SIGTERM)

	ctx = progress.Open(ctx, os.Stderr)

	rets := c.f.Call([]reflect.Value{reflect.ValueOf(ctx), c.opts.Elem()})

	if err, ok := rets[0].Interface().(error); ok && err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		return 1
	}

	return 0
}

func cancelOnSignal(cancel func(), signals ...os.Signal) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)

	go func() {
		for range ch {
			cancel()
		}
	}()
}
