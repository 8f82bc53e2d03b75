package mqtt

import (
	"fmt"
	"strings"

	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// pahoLogger implements the paho log.Logger interface on top of pkg/log.
type pahoLogger struct {
	prefix string
}

func (l pahoLogger) Println(v ...any) {
	log.Debug(strings.TrimSpace(fmt.Sprintln(v...)), "component", l.prefix)
}

func (l pahoLogger) Printf(format string, v ...any) {
	log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", l.prefix)
}
