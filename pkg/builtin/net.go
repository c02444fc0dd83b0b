package builtin

import (
	"net"
	"strconv"
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// netNamespace mirrors original_source's system_module/net.py, which wraps
// Python's ipaddress/socket modules; Go's standard net package is the
// direct equivalent.
func netNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "split_host_port", Fn: netSplitHostPort},
		{Name: "join_host_port", Fn: netJoinHostPort},
		{Name: "parse_IP", Fn: netParseIP},
		{Name: "to_IP4", Fn: netToIP4},
		{Name: "is_IPv4", Fn: netIsIPv4},
		{Name: "is_IP", Fn: netIsIP},
		{Name: "is_loopback_IP", Fn: netIsLoopback},
		{Name: "is_multicast_IP", Fn: netIsMulticast},
		{Name: "is_unspecified_IP", Fn: netIsUnspecified},
	}
}

func netSplitHostPort(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("net.split_host_port", "expects a str argument")
	}
	parts := strings.SplitN(args[0].Str, ":", 2)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.Str(p)
	}
	return value.List(out), nil
}

func netJoinHostPort(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, argErr("net.join_host_port", "expects (host, port)")
	}
	port := args[1].String()
	if args[1].Kind == value.KindInt {
		port = strconv.FormatInt(args[1].Int, 10)
	}
	return value.Str(net.JoinHostPort(args[0].Str, port)), nil
}

func netParseIP(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("net.parse_IP", "expects a str argument")
	}
	ip := net.ParseIP(args[0].Str)
	if ip == nil {
		return value.None, nil
	}
	return value.Str(ip.String()), nil
}

func netToIP4(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("net.to_IP4", "expects a str argument")
	}
	ip := net.ParseIP(args[0].Str)
	if ip == nil || ip.To4() == nil {
		return value.Str("None"), nil
	}
	return value.Str(ip.To4().String()), nil
}

func netIsIPv4(args []value.Value) (value.Value, error) {
	ip := netParse(args)
	return value.Bool(ip != nil && ip.To4() != nil), nil
}

func netIsIP(args []value.Value) (value.Value, error) {
	return value.Bool(netParse(args) != nil), nil
}

func netIsLoopback(args []value.Value) (value.Value, error) {
	ip := netParse(args)
	return value.Bool(ip != nil && ip.IsLoopback()), nil
}

func netIsMulticast(args []value.Value) (value.Value, error) {
	ip := netParse(args)
	return value.Bool(ip != nil && ip.IsMulticast()), nil
}

func netIsUnspecified(args []value.Value) (value.Value, error) {
	ip := netParse(args)
	return value.Bool(ip != nil && ip.IsUnspecified()), nil
}

func netParse(args []value.Value) net.IP {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return nil
	}
	return net.ParseIP(args[0].Str)
}
