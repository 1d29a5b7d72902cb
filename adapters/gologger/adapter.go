package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
)

// DefaultLoggerName is used when callers resolve without a name.
const DefaultLoggerName = "custody"

// Resolve prefers provider, then logger, then a nop logger.
func Resolve(name string, provider core.LoggerProvider, logger core.Logger) (core.LoggerProvider, core.Logger) {
	if strings.TrimSpace(name) == "" {
		name = DefaultLoggerName
	}
	return glog.Resolve(name, provider, logger)
}

// WorkerLogger returns the logger used by the disbursement job worker.
func WorkerLogger(provider core.LoggerProvider, logger core.Logger) core.Logger {
	_, resolved := Resolve(DefaultLoggerName+".jobs", provider, logger)
	return resolved
}

// ResolveForJob resolves the custody logger pair alongside the go-job
// bridges so queue infrastructure logs through the same sink.
func ResolveForJob(
	name string,
	provider core.LoggerProvider,
	logger core.Logger,
) (core.LoggerProvider, core.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	var (
		jobProvider job.LoggerProvider
		jobLogger   job.Logger
	)
	if resolvedProvider != nil {
		jobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	if resolvedLogger != nil {
		jobLogger = job.GoLogger(resolvedLogger)
	}
	return resolvedProvider, resolvedLogger, jobProvider, jobLogger
}
