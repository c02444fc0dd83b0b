package builtin

import (
	"time"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// datetimeNamespace mirrors original_source's system_module/datetime.py
// (today, now, ticks, date) over Go's time package.
func datetimeNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "today", Fn: dtToday},
		{Name: "now", Fn: dtNow},
		{Name: "ticks", Fn: dtTicks},
		{Name: "date", Fn: dtDate},
	}
}

func dtToday(args []value.Value) (value.Value, error) {
	return value.Str(time.Now().Format("2006-01-02 15:04:05.000000")), nil
}

func dtNow(args []value.Value) (value.Value, error) {
	return value.Str(time.Now().Format(time.ANSIC)), nil
}

func dtTicks(args []value.Value) (value.Value, error) {
	return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
}

func dtDate(args []value.Value) (value.Value, error) {
	return value.Str(time.Now().Format("2006-01-02 15:04:05")), nil
}
