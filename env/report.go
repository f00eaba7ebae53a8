package env

import (
	"fmt"
	"os"
	"time"

	"github.com/PurpleSec/logx"
)

const (
	panicReportPrefix = "graft-panic-report"
	errorReportPrefix = "graft-error-report"
)

// writeReport logs body and persists it to a timestamped report file in the
// working directory, which belongs to the host process. A report that cannot
// be written is logged and dropped.
func writeReport(log logx.Log, prefix, body string) {
	log.Error("%s", body)

	name := fmt.Sprintf("%s-%d.txt", prefix, time.Now().Unix())
	if err := os.WriteFile(name, []byte(body+"\n"), 0o644); err != nil {
		log.Error("Failed to write report %s: %v", name, err)
		return
	}
	log.Info("Report written to %s.", name)
}
