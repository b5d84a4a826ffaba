package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ava12/g4scope/config"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/tree"
	"github.com/ava12/g4scope/workbench"
)

const (
	wrapWidth = 100
	indent    = "  "
)

var sourceColors = map[diag.Source]color.Color{
	diag.Grammar:  color.Red,
	diag.Compiler: color.Magenta,
	diag.Code:     color.Yellow,
	diag.Unknown:  color.Gray,
}

// reporter writes responses in the configured format.
type reporter struct {
	w      io.Writer
	format string
	json   *json.Encoder
	mp     *msgpack.Encoder
}

func newReporter(w io.Writer, format string) *reporter {
	r := &reporter{w: w, format: format}
	switch format {
	case config.FormatJSON:
		r.json = json.NewEncoder(w)
		r.json.SetIndent("", indent)
	case config.FormatMsgpack:
		r.mp = msgpack.NewEncoder(w)
	}
	return r
}

func (r *reporter) Response(resp *workbench.Response) error {
	switch r.format {
	case config.FormatJSON:
		return r.json.Encode(resp)
	case config.FormatMsgpack:
		return r.mp.Encode(resp)
	}
	r.text(resp)
	return nil
}

// Errors reports an error list not bound to any response, e.g. of gen command.
func (r *reporter) Errors(name string, errs diag.List) error {
	switch r.format {
	case config.FormatJSON:
		return r.json.Encode(errs)
	case config.FormatMsgpack:
		return r.mp.Encode(errs)
	}
	if name != "" {
		fmt.Fprintln(r.w, color.Bold.Sprint(name))
	}
	r.errorList(errs)
	return nil
}

func (r *reporter) text(resp *workbench.Response) {
	res := resp.Result
	title := resp.Run
	if title == "" {
		title = resp.Name
	}
	if title == "" {
		title = "?"
	}
	status := color.Green.Sprint("ok")
	if !res.OK() {
		status = color.Red.Sprintf("%d error(s)", res.Errors.Len())
	}
	fmt.Fprintf(r.w, "%s (%s, %s): %s\n", color.Bold.Sprint(title), resp.Engine, resp.Elapsed.Round(time.Microsecond), status)

	if res.HasTokens() {
		fmt.Fprintln(r.w, color.Cyan.Sprint("tokens:"))
		for _, t := range res.Tokens {
			fmt.Fprintf(r.w, "%s%d:%d %s %q\n", indent, t.Line, t.Column, t.Type, t.Text)
		}
	}
	if res.HasTree() {
		fmt.Fprintln(r.w, color.Cyan.Sprint("tree:"))
		fmt.Fprintln(r.w, indent+tree.String(res.Tree))
	}
	if !res.OK() {
		fmt.Fprintln(r.w, color.Cyan.Sprint("errors:"))
		r.errorList(res.Errors)
	}
	if resp.Graph != "" {
		fmt.Fprintln(r.w, color.Cyan.Sprint("graph:"))
		fmt.Fprint(r.w, resp.Graph)
		if !strings.HasSuffix(resp.Graph, "\n") {
			fmt.Fprintln(r.w)
		}
	}
}

func (r *reporter) errorList(errs diag.List) {
	for _, m := range errs {
		prefix := fmt.Sprintf("%s %s: ", m.Source, m.Position())
		lines := strings.Split(wordwrap.WrapString(m.Message, wrapWidth-uint(len(prefix))), "\n")
		pad := strings.Repeat(" ", len(prefix))
		fmt.Fprintf(r.w, "%s%s%s\n", indent, sourceColors[m.Source].Sprint(prefix), lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(r.w, "%s%s%s\n", indent, pad, l)
		}
	}
}
