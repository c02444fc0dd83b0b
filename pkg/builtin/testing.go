package builtin

import (
	"os"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// testingNamespace mirrors original_source's system_module/testing.py:
// two assertion helpers a KCL test file can call to validate how `option()`
// would be configured, without that configuration actually existing here
// (pkg/settings owns the real option/setting-file plumbing).
func testingNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "arguments", Fn: testingArguments},
		{Name: "setting_file", Fn: testingSettingFile},
	}
}

func testingArguments(args []value.Value) (value.Value, error) {
	if len(args) != 2 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("testing.arguments", "expects (name, value)")
	}
	switch args[1].Kind {
	case value.KindBool, value.KindInt, value.KindFloat, value.KindStr:
	default:
		return value.Value{}, argErr("testing.arguments", "value must be bool, int, float, or str")
	}
	if args[0].Str == "" {
		return value.Value{}, argErr("testing.arguments", "name is invalid")
	}
	return value.Undefined, nil
}

func testingSettingFile(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("testing.setting_file", "expects a str argument")
	}
	info, err := os.Stat(args[0].Str)
	if err != nil || info.IsDir() {
		return value.Value{}, argErr("testing.setting_file", args[0].Str+" is not a file")
	}
	return value.Undefined, nil
}
