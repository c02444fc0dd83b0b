package planner

import (
	"strings"
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

func personResult() *value.Dict {
	d := value.NewDict()
	d.Set("name", value.Str("Alice"), value.OpOverride)
	d.Set("age", value.Int(18), value.OpOverride)
	return d
}

func TestToYAMLPreservesInsertionOrder(t *testing.T) {
	out, err := ToYAML(personResult(), Options{})
	if err != nil {
		t.Fatalf("ToYAML error: %v", err)
	}
	nameIdx := strings.Index(out, "name:")
	ageIdx := strings.Index(out, "age:")
	if nameIdx == -1 || ageIdx == -1 || nameIdx > ageIdx {
		t.Errorf("expected name before age in %q", out)
	}
}

func TestToYAMLSortKeys(t *testing.T) {
	out, err := ToYAML(personResult(), Options{SortKeys: true})
	if err != nil {
		t.Fatalf("ToYAML error: %v", err)
	}
	ageIdx := strings.Index(out, "age:")
	nameIdx := strings.Index(out, "name:")
	if ageIdx == -1 || nameIdx == -1 || ageIdx > nameIdx {
		t.Errorf("expected age before name when sorted, got %q", out)
	}
}

func TestIgnorePrivateElidesUnderscoreKeys(t *testing.T) {
	d := personResult()
	d.Set("_secret", value.Str("hidden"), value.OpOverride)
	out, err := ToYAML(d, Options{IgnorePrivate: true})
	if err != nil {
		t.Fatalf("ToYAML error: %v", err)
	}
	if strings.Contains(out, "_secret") || strings.Contains(out, "hidden") {
		t.Errorf("expected _secret elided, got %q", out)
	}
}

func TestIgnoreNoneDropsNoneValues(t *testing.T) {
	d := personResult()
	d.Set("nickname", value.None, value.OpOverride)
	out, err := ToJSON(d, Options{IgnoreNone: true})
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if strings.Contains(out, "nickname") {
		t.Errorf("expected nickname dropped, got %q", out)
	}
}

func TestPathSelectorNested(t *testing.T) {
	appConfig := value.NewDict()
	appConfig.Set("image", value.Str("nginx:1.25"), value.OpOverride)
	appConfig.Set("replicas", value.Int(3), value.OpOverride)
	root := value.NewDict()
	root.Set("appConfig", value.FromDict(appConfig), value.OpOverride)
	root.Set("other", value.Str("ignored"), value.OpOverride)

	out, err := ToYAML(root, Options{PathSelectors: []string{"appConfig.image"}})
	if err != nil {
		t.Fatalf("ToYAML error: %v", err)
	}
	if !strings.Contains(out, "nginx:1.25") {
		t.Errorf("expected selected image in output, got %q", out)
	}
	if strings.Contains(out, "ignored") {
		t.Errorf("expected unselected field dropped, got %q", out)
	}
}

func TestPathSelectorMissingKeyErrors(t *testing.T) {
	if _, err := ToYAML(personResult(), Options{PathSelectors: []string{"missing.path"}}); err == nil {
		t.Errorf("expected error for missing path selector")
	}
}
