package logger

import (
	"bytes"
	"fmt"

	"github.com/logrusorgru/aurora/v3"
)

const prefix = "pgtern"

type Printer interface {
	Output(calldepth int, s string) error
}

type Logger interface {
	Successf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Error(err error)
	SQL(query string, args ...interface{})
}

// Console writes log lines through a Printer, optionally colored
type Console struct {
	printer Printer
	au      aurora.Aurora
	debug   bool
	sql     bool
}

var _ Logger = (*Console)(nil)

func NewColorLogger(p Printer, sql, debug bool) *Console {
	return &Console{printer: p, au: aurora.NewAurora(true), sql: sql, debug: debug}
}

func NewBWLogger(p Printer, sql, debug bool) *Console {
	return &Console{printer: p, au: aurora.NewAurora(false), sql: sql, debug: debug}
}

func (c *Console) Debugf(format string, args ...interface{}) {
	if !c.debug {
		return
	}

	msg := fmt.Sprintf(prefix+" debug: "+format, args...)
	_ = c.printer.Output(2, c.au.Yellow(msg).String())
}

func (c *Console) Successf(format string, args ...interface{}) {
	msg := fmt.Sprintf(prefix+": "+format, args...)
	_ = c.printer.Output(2, c.au.Green(msg).String())
}

func (c *Console) Error(err error) {
	if err == nil {
		return
	}

	msg := fmt.Sprintf("%s error: %s", prefix, err.Error())
	_ = c.printer.Output(2, c.au.Red(msg).String())
}

func (c *Console) SQL(query string, args ...interface{}) {
	if !c.sql {
		return
	}

	var buf bytes.Buffer
	buf.WriteString(prefix)
	buf.WriteString(" running sql: ")
	buf.WriteString(query)

	if len(args) > 0 {
		buf.WriteString("\nquery parameters: ")
		for i := range args {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(fmt.Sprintf("{%#v}", args[i]))
		}
	}

	_ = c.printer.Output(2, c.au.Gray(15, buf.String()).String())
}
