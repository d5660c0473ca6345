package binutil

import (
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/noahframe/noahframe/engine/nflog"
)

// SetupHTTPServer starts the HTTP server for go tool pprof
func SetupHTTPServer(ip string, port int) {
	if port == 0 {
		// pprof not enabled
		nflog.Infof("pprof server not enabled")
		return
	}

	httpHost := fmt.Sprintf("%s:%d", ip, port)
	nflog.Infof("http server listening on %s", httpHost)
	nflog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", httpHost)
	nflog.Infof("    go tool pprof http://%s/debug/pprof/heap", httpHost)
	nflog.Infof("    go tool pprof http://%s/debug/pprof/profile", httpHost)

	go func() {
		http.ListenAndServe(httpHost, nil)
	}()
}

// SetupNFLog configures the log system: source tag, level and outputs.
// Log files rotate at 100MB, keeping 30 days of compressed backups.
func SetupNFLog(component string, logLevel string, logFile string, logStderr bool) {
	nflog.SetSource(component)
	nflog.Infof("Set log level to %s", logLevel)
	nflog.SetLevel(nflog.ParseLevel(logLevel))

	outputWriters := make([]io.Writer, 0, 2)
	if logFile != "" {
		logFileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 100,
			MaxAge:     30, // days
			Compress:   true,
		}

		logFileWriter.Rotate() // rotate immediately
		outputWriters = append(outputWriters, logFileWriter)
	}

	if logStderr {
		outputWriters = append(outputWriters, os.Stderr)
	}

	if len(outputWriters) == 1 {
		nflog.SetOutput(outputWriters[0])
	} else {
		nflog.SetOutput(io.MultiWriter(outputWriters...))
	}
}
