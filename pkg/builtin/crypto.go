package builtin

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// cryptoNamespace mirrors original_source's system_module/crypto.py
// (hashlib-backed digests) over Go's standard crypto/* packages, covering
// md5/sha1/sha224/sha256/sha384/sha512 to match the original's full digest
// set.
func cryptoNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "md5", Fn: digestFn("crypto.md5", func(b []byte) []byte { sum := md5.Sum(b); return sum[:] })},
		{Name: "sha1", Fn: digestFn("crypto.sha1", func(b []byte) []byte { sum := sha1.Sum(b); return sum[:] })},
		{Name: "sha224", Fn: digestFn("crypto.sha224", func(b []byte) []byte { sum := sha256.Sum224(b); return sum[:] })},
		{Name: "sha256", Fn: digestFn("crypto.sha256", func(b []byte) []byte { sum := sha256.Sum256(b); return sum[:] })},
		{Name: "sha384", Fn: digestFn("crypto.sha384", func(b []byte) []byte { sum := sha512.Sum384(b); return sum[:] })},
		{Name: "sha512", Fn: digestFn("crypto.sha512", func(b []byte) []byte { sum := sha512.Sum512(b); return sum[:] })},
	}
}

func digestFn(name string, sum func([]byte) []byte) value.BuiltInFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Kind != value.KindStr {
			return value.Value{}, argErr(name, "expects a str argument")
		}
		return value.Str(hex.EncodeToString(sum([]byte(args[0].Str)))), nil
	}
}
