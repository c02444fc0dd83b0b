package builtin

import (
	"encoding/base64"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// base64Namespace mirrors original_source's system_module/base64.py,
// using Go's encoding/base64 standard encoding (no example repo imports a
// third-party base64 variant; the standard library's is the one every
// reference implementation reaches for too).
func base64Namespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "encode", Fn: base64Encode},
		{Name: "decode", Fn: base64Decode},
	}
}

func base64Encode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("base64.encode", "expects a str argument")
	}
	return value.Str(base64.StdEncoding.EncodeToString([]byte(args[0].Str))), nil
}

func base64Decode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("base64.decode", "expects a str argument")
	}
	out, err := base64.StdEncoding.DecodeString(args[0].Str)
	if err != nil {
		return value.Value{}, argErr("base64.decode", err.Error())
	}
	return value.Str(string(out)), nil
}
