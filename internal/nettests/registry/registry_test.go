package registry

import "testing"

func TestByNameBuildsEveryTest(t *testing.T) {
	shared := &Shared{}
	for name, ctor := range ByName {
		test := ctor(shared)
		if test.Name() != name {
			t.Fatalf("constructor for %q built a test named %q", name, test.Name())
		}
		if test.Version() == "" {
			t.Fatalf("test %q has an empty version", name)
		}
	}
}

func TestNamesMatchesByName(t *testing.T) {
	names := Names()
	if len(names) != len(ByName) {
		t.Fatalf("expected %d names, got %d", len(ByName), len(names))
	}
}
