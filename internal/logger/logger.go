package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes colored, categorized lines to the console and plain lines to
// a log file. Categories keep grep-ability across the service: DATABASE,
// KAFKA, ORDER, TABLE, PAYMENT, API, ...
type Logger struct {
	mu    sync.Mutex
	file  *os.File
	debug bool
}

var (
	infoTag  = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnTag  = color.New(color.FgYellow, color.Bold).SprintFunc()
	errorTag = color.New(color.FgRed, color.Bold).SprintFunc()
	debugTag = color.New(color.FgCyan).SprintFunc()
	category = color.New(color.FgMagenta).SprintFunc()
)

func NewLogger() *Logger {
	l := &Logger{debug: os.Getenv("LOG_DEBUG") == "true"}

	path := os.Getenv("LOG_FILE")
	if path == "" {
		path = filepath.Join("logs", "dinehall.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			l.file = f
		}
	}
	return l
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) write(level, tag, cat, msg string) {
	ts := time.Now().Format("2006-01-02 15:04:05")

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stdout, "%s %s %s %s\n", ts, tag, category("["+cat+"]"), msg)
	if l.file != nil {
		fmt.Fprintf(l.file, "%s [%s] [%s] %s\n", ts, level, cat, msg)
	}
}

func (l *Logger) Info(cat, msg string)  { l.write("INFO", infoTag("[INFO]"), cat, msg) }
func (l *Logger) Warn(cat, msg string)  { l.write("WARN", warnTag("[WARN]"), cat, msg) }
func (l *Logger) Error(cat, msg string) { l.write("ERROR", errorTag("[ERROR]"), cat, msg) }

func (l *Logger) Debug(cat, msg string) {
	if !l.debug {
		return
	}
	l.write("DEBUG", debugTag("[DEBUG]"), cat, msg)
}

func (l *Logger) Fatal(cat, msg string) {
	l.write("FATAL", errorTag("[FATAL]"), cat, msg)
	l.Close()
	os.Exit(1)
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogDatabase(op, target, msg string) {
	l.Debug("DATABASE", fmt.Sprintf("[%s] %s: %s", op, target, msg))
}

func (l *Logger) LogKafka(op, topic, msg string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s: %s", op, topic, msg))
}

func (l *Logger) LogOrder(op, orderID, msg string) {
	l.Info("ORDER", fmt.Sprintf("[%s] %s: %s", op, orderID, msg))
}

func (l *Logger) LogTable(op, tableID, msg string) {
	l.Info("TABLE", fmt.Sprintf("[%s] %s: %s", op, tableID, msg))
}

func (l *Logger) LogReservation(op, reservationID, msg string) {
	l.Info("RESERVATION", fmt.Sprintf("[%s] %s: %s", op, reservationID, msg))
}

func (l *Logger) LogPayment(op, paymentID, msg string) {
	l.Info("PAYMENT", fmt.Sprintf("[%s] %s: %s", op, paymentID, msg))
}

func (l *Logger) LogProcess(stage, msg string) {
	l.Info("PROCESS", fmt.Sprintf("[%s] %s", stage, msg))
}

func (l *Logger) LogSecurity(event, msg string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, msg))
}
