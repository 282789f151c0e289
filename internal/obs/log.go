package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide line logger. Everything paddock-api emits
// goes through it: request logs, notification records, and audit entries that
// could not reach the store. Output is one JSON object per line on stdout, so
// no prefix and no log flags.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest marshals the entry to a single JSON line. Callers pass whatever
// fields fit the event; nothing here enforces a schema. An entry that cannot
// be marshaled is replaced by a fixed diagnostic line rather than dropped.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"type":"log_error","msg":"entry marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
