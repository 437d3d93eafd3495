package gotreesitter

import (
	"github.com/npillmayer/schuko/tracing"
)

// parseTracer traces with key 'gotreesitter.parse'.
func parseTracer() tracing.Trace {
	return tracing.Select("gotreesitter.parse")
}

// lexTracer traces with key 'gotreesitter.lex'.
func lexTracer() tracing.Trace {
	return tracing.Select("gotreesitter.lex")
}

// TracingLogger routes parser and lexer debug events through the schuko
// tracing framework, under the keys 'gotreesitter.parse' and
// 'gotreesitter.lex'. Install it with Parser.SetLogger when an application
// already configures schuko tracing.
type TracingLogger struct{}

func (TracingLogger) Log(logType LogType, message string) {
	switch logType {
	case LogTypeLex:
		lexTracer().Debugf("%s", message)
	default:
		parseTracer().Debugf("%s", message)
	}
}
