package patcher

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPatch_InsertIntoExistingBlock(t *testing.T) {
	raw := "# stagectl service definition\n" +
		"service: myservice\n" +
		"\n" +
		"stages:\n" +
		"  default: dev\n" +
		"  dev: local # developer cluster\n" +
		"\n" +
		"datamodel: types.graphql\n"

	want := "# stagectl service definition\n" +
		"service: myservice\n" +
		"\n" +
		"stages:\n" +
		"  default: dev\n" +
		"  dev: local # developer cluster\n" +
		"  staging: eu-west-1\n" +
		"\n" +
		"datamodel: types.graphql\n"

	patched, err := Patch([]byte(raw), "stages", "  staging: eu-west-1\n")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}
	if string(patched) != want {
		t.Errorf("Patch() =\n%s\nwant\n%s", patched, want)
	}
}

func TestPatch_RoundTrip(t *testing.T) {
	raw := "service: myservice\n" +
		"stages:\n" +
		"  default: dev\n" +
		"  dev: local\n" +
		"datamodel: types.graphql\n"

	patched, err := Patch([]byte(raw), "stages", "  staging: eu-west-1\n")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}

	var after struct {
		Service   string            `yaml:"service"`
		Stages    map[string]string `yaml:"stages"`
		Datamodel string            `yaml:"datamodel"`
	}
	if err := yaml.Unmarshal(patched, &after); err != nil {
		t.Fatalf("patched text no longer parses: %v", err)
	}

	wantStages := map[string]string{"default": "dev", "dev": "local", "staging": "eu-west-1"}
	if len(after.Stages) != len(wantStages) {
		t.Fatalf("stages after patch = %v, want %v", after.Stages, wantStages)
	}
	for stage, cluster := range wantStages {
		if after.Stages[stage] != cluster {
			t.Errorf("stages[%q] = %q, want %q", stage, after.Stages[stage], cluster)
		}
	}
	if after.Service != "myservice" || after.Datamodel != "types.graphql" {
		t.Error("unrelated keys changed by patch")
	}
}

func TestPatch_RemovesFlowPlaceholder(t *testing.T) {
	raw := "service: s\nstages: {}\ndatamodel: d.graphql\n"
	want := "service: s\nstages:\n  dev: local\ndatamodel: d.graphql\n"

	patched, err := Patch([]byte(raw), "stages", "  dev: local\n")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}
	if string(patched) != want {
		t.Errorf("Patch() = %q, want %q", patched, want)
	}
}

func TestPatch_RemovesImplicitNullValue(t *testing.T) {
	raw := "stages:\nservice: s\n"
	want := "stages:\n  dev: local\nservice: s\n"

	patched, err := Patch([]byte(raw), "stages", "  dev: local\n")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}
	if string(patched) != want {
		t.Errorf("Patch() = %q, want %q", patched, want)
	}
}

func TestPatch_PlaceholderBoundary(t *testing.T) {
	// The placeholder heuristic removes value spans shorter than
	// placeholderSpanMax bytes and keeps everything at or above it. 3 and 4
	// byte spans sit exactly on the boundary.
	t.Run("3-byte span removed", func(t *testing.T) {
		raw := "stages: abc\nnext: 1\n"
		want := "stages:\n  dev: local\nnext: 1\n"

		patched, err := Patch([]byte(raw), "stages", "  dev: local\n")
		if err != nil {
			t.Fatalf("Patch() failed: %v", err)
		}
		if string(patched) != want {
			t.Errorf("Patch() = %q, want %q", patched, want)
		}
	})

	t.Run("4-byte span kept", func(t *testing.T) {
		raw := "stages: abcd\nnext: 1\n"
		want := "stages: abcd\n  dev: local\nnext: 1\n"

		patched, err := Patch([]byte(raw), "stages", "  dev: local\n")
		if err != nil {
			t.Fatalf("Patch() failed: %v", err)
		}
		if string(patched) != want {
			t.Errorf("Patch() = %q, want %q", patched, want)
		}
	})
}

func TestPatch_AppendsWhenKeyMissing(t *testing.T) {
	raw := "service: s\ndatamodel: d.graphql\n"

	patched, err := Patch([]byte(raw), "stages", "  dev: local\n")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}

	if !strings.HasPrefix(string(patched), raw) {
		t.Error("existing text must be preserved when appending a new block")
	}

	var after struct {
		Stages map[string]string `yaml:"stages"`
	}
	if err := yaml.Unmarshal(patched, &after); err != nil {
		t.Fatalf("patched text no longer parses: %v", err)
	}
	if after.Stages["dev"] != "local" {
		t.Errorf("appended block not parsed, stages = %v", after.Stages)
	}
}

func TestPatch_InsertionNewlineIsOptional(t *testing.T) {
	raw := "stages:\n  dev: local\n"

	patched, err := Patch([]byte(raw), "stages", "  prod: eu-west-1")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}
	if !strings.HasSuffix(string(patched), "  prod: eu-west-1\n") {
		t.Errorf("Patch() should terminate the insertion with a newline, got %q", patched)
	}
}

func TestPatch_PreservesCommentsElsewhere(t *testing.T) {
	raw := "# header comment\n" +
		"service: 'quoted' # keep the quoting style\n" +
		"stages:\n" +
		"  dev: local\n" +
		"# trailing comment\n"

	patched, err := Patch([]byte(raw), "stages", "  prod: eu-west-1\n")
	if err != nil {
		t.Fatalf("Patch() failed: %v", err)
	}

	for _, fragment := range []string{
		"# header comment\n",
		"service: 'quoted' # keep the quoting style\n",
		"# trailing comment\n",
	} {
		if !strings.Contains(string(patched), fragment) {
			t.Errorf("patched text lost %q", fragment)
		}
	}
}

func TestPatch_RejectsUnparsableText(t *testing.T) {
	_, err := Patch([]byte("stages: [unclosed\n"), "stages", "  dev: local\n")
	if err == nil {
		t.Fatal("Patch() should fail when the text does not parse")
	}
}
