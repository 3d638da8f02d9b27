// Package logx is the process-wide leveled logger shared by the codecs and
// the stripecodec command. The minimum level is global, read-only
// configuration: it only decides which diagnostics get printed.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

type Level int32

const (
	DEBUG Level = iota
	INFO
	NOTICE
	WARN
	ERROR
	CRITICAL
	LevelCount
)

type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

var levelNames = [LevelCount]string{
	DEBUG:    "debug",
	INFO:     "info",
	NOTICE:   "notice",
	WARN:     "warn",
	ERROR:    "error",
	CRITICAL: "critical",
}

type levelTags [LevelCount]string

var levelstrings = [2]levelTags{
	// uncolored
	{
		DEBUG:    "   DEBUG",
		INFO:     "    INFO",
		NOTICE:   "  NOTICE",
		WARN:     " WARNING",
		ERROR:    "   ERROR",
		CRITICAL: "CRITICAL",
	},
	// colored
	{
		DEBUG:    "\033[37m   DEBUG\033[0m",
		INFO:     "\033[34m    INFO\033[0m",
		NOTICE:   "\033[32m  NOTICE\033[0m",
		WARN:     "\033[33m WARNING\033[0m",
		ERROR:    "\033[31m   ERROR\033[0m",
		CRITICAL: "\033[35mCRITICAL\033[0m",
	},
}

var formatstrings = [2]string{
	"%s %s [%s] ",
	"%s %s [\033[36m%s\033[0m] ",
}

func (l Level) String() string {
	if l < 0 || l >= LevelCount {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the names printed by Level.String, case-insensitively.
// "warning" is accepted as an alias of "warn".
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WARN, nil
	}
	for i, n := range levelNames {
		if n == s {
			return Level(i), nil
		}
	}
	return INFO, fmt.Errorf("logx: unknown log level %q", s)
}

// ParseColorMode maps "auto", "on" and "off" (and "", meaning auto).
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always", "true":
		return ColorOn, nil
	case "off", "never", "false":
		return ColorOff, nil
	}
	return ColorAuto, fmt.Errorf("logx: unknown color mode %q", s)
}

var (
	level atomic.Int32

	mu    sync.Mutex
	out   io.Writer = os.Stderr
	color int
)

func init() {
	level.Store(int32(INFO))
	SetOutput(os.Stderr, ColorAuto)
}

// SetLevel sets the process-wide minimum level.
func SetLevel(l Level) { level.Store(int32(l)) }

// GetLevel returns the process-wide minimum level.
func GetLevel() Level { return Level(level.Load()) }

// Enabled reports whether messages at lvl are printed.
func Enabled(lvl Level) bool { return lvl >= GetLevel() }

// SetOutput redirects log output. Files attached to a terminal get coloured
// level tags under ColorAuto.
func SetOutput(w io.Writer, c ColorMode) {
	t := 0
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if c == ColorOn || (c == ColorAuto && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))) {
			w = colorable.NewColorable(f)
			t = 1
		}
	} else if c == ColorOn {
		t = 1
	}

	mu.Lock()
	out = w
	color = t
	mu.Unlock()
}

// Printf prints one line tagged with section and level.
func Printf(section string, lvl Level, format string, v ...interface{}) {
	if !Enabled(lvl) {
		return
	}
	if lvl < 0 || lvl >= LevelCount {
		lvl = CRITICAL
	}
	msg := fmt.Sprintf(format, v...)
	now := time.Now().Format("15:04:05")

	mu.Lock()
	defer mu.Unlock()

	fmt.Fprintf(out, formatstrings[color], now, levelstrings[color][lvl], section)
	io.WriteString(out, msg)
	if !strings.HasSuffix(msg, "\n") {
		io.WriteString(out, "\n")
	}
}

func Debugf(section, format string, v ...interface{}) { Printf(section, DEBUG, format, v...) }
func Infof(section, format string, v ...interface{})  { Printf(section, INFO, format, v...) }
func Warnf(section, format string, v ...interface{})  { Printf(section, WARN, format, v...) }
func Errorf(section, format string, v ...interface{}) { Printf(section, ERROR, format, v...) }
