package metrics

import (
	"fmt"
	"log"
	"os"
	"path"
)

type Logger interface {
	Log(info *MetricsInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *MetricsInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultQueueSize = 2000
const defaultMaxLogFileSize = 1024 * 1024 * 1024

// FileLogger appends one JSON record per request to a log file in
// LogDir, rotating once the file exceeds MaxLogFileSize.
type FileLogger struct {
	MetricsQueue   chan *MetricsInfo
	LogDir         string
	MaxLogFileSize int64
	Verbose        bool
}

func NewFileLogger(logDir string, maxLogFileSize int64, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	logger := &FileLogger{
		MetricsQueue:   make(chan *MetricsInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		Verbose:        verbose,
	}

	go logger.startLogWriter()

	return logger
}

func (l *FileLogger) Log(info *MetricsInfo) {
	l.MetricsQueue <- info
}

func (l *FileLogger) startLogWriter() {
	f, err := l.openLogFile()
	if err != nil {
		log.Printf("FileLogger: log open error: %v", err)
	}

	for info := range l.MetricsQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger: info.ToJSON() error: %v", err)
			continue
		}

		f, err = l.tryRotateLogFile(f)
		if err != nil {
			continue
		}

		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger: write error: %v", err)
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) openLogFile() (*os.File, error) {
	logFilePath := path.Join(l.LogDir, "requests.log")
	return os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File) (*os.File, error) {
	info, err := currFile.Stat()
	if err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
		return currFile, nil
	}

	if info.Size() < l.MaxLogFileSize {
		return currFile, nil
	}

	currLogFilePath := path.Join(l.LogDir, "requests.log")
	rotatedLogFilePath := path.Join(l.LogDir, fmt.Sprintf("requests.log.%d", info.ModTime().Unix()))

	currFile.Close()
	if err := os.Rename(currLogFilePath, rotatedLogFilePath); err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
	} else if l.Verbose {
		log.Printf("FileLogger: log file rotated: %v", rotatedLogFilePath)
	}

	f, err := l.openLogFile()
	if err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
	}

	return f, err
}
