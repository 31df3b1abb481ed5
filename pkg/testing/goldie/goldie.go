// Package goldie wraps sebdah/goldie with the fixture layout used by the tests of this module:
// golden files live in ./fixtures and end with .golden.
package goldie

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jensneuse/diffview"
	"github.com/sebdah/goldie/v2"
)

func New(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("fixtures"),
		goldie.WithNameSuffix(".golden"),
		goldie.WithDiffEngine(goldie.ClassicDiff),
	)
}

// AssertJSON compares the indented JSON encoding of actual with the fixture name.
// A failed comparison is opened in diffview.
func AssertJSON(t *testing.T, name string, actual interface{}) {
	t.Helper()

	out, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		t.Fatal(err)
	}

	Assert(t, name, out)
	if t.Failed() {
		fixture, err := os.ReadFile(filepath.Join("fixtures", name+".golden"))
		if err != nil {
			t.Fatal(err)
		}

		diffview.NewGoland().DiffViewBytes(name, fixture, out)
	}
}
