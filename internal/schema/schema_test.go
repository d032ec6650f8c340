package schema

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	apperrors "stagectl/internal/errors"
)

func TestAssemble_ConcatenatesInOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/svc/types.graphql", []byte("type User { id: ID! }"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/svc/enums.graphql", []byte("enum Role { ADMIN }"), 0644); err != nil {
		t.Fatal(err)
	}

	assembled, err := Assemble(fs, "/svc", []string{"types.graphql", "enums.graphql"})
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}

	expected := "type User { id: ID! }\nenum Role { ADMIN }\n"
	if assembled != expected {
		t.Errorf("Assemble() = %q, want %q", assembled, expected)
	}
}

func TestAssemble_SinglePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/svc/datamodel.graphql", []byte("type Post { title: String }"), 0644); err != nil {
		t.Fatal(err)
	}

	assembled, err := Assemble(fs, "/svc", []string{"datamodel.graphql"})
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if assembled != "type Post { title: String }\n" {
		t.Errorf("Assemble() = %q", assembled)
	}
}

func TestAssemble_MissingFileStopsImmediately(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/svc/first.graphql", []byte("type A { x: Int }"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/svc/third.graphql", []byte("type C { z: Int }"), 0644); err != nil {
		t.Fatal(err)
	}

	assembled, err := Assemble(fs, "/svc", []string{"first.graphql", "second.graphql", "third.graphql"})
	if err == nil {
		t.Fatal("Assemble() should fail on the first missing file")
	}
	if assembled != "" {
		t.Errorf("Assemble() returned partial result %q on failure", assembled)
	}

	var notFound *apperrors.SchemaFileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Assemble() returned %T, want *SchemaFileNotFoundError", err)
	}
	if notFound.Path != "second.graphql" {
		t.Errorf("missing path = %q, want %q", notFound.Path, "second.graphql")
	}
}

func TestAssemble_NoPaths(t *testing.T) {
	assembled, err := Assemble(afero.NewMemMapFs(), "/svc", nil)
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if assembled != "" {
		t.Errorf("Assemble() with no paths = %q, want empty", assembled)
	}
}

func TestAssemble_AbsolutePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/shared/common.graphql", []byte("scalar DateTime"), 0644); err != nil {
		t.Fatal(err)
	}

	assembled, err := Assemble(fs, "/svc", []string{"/shared/common.graphql"})
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	if assembled != "scalar DateTime\n" {
		t.Errorf("Assemble() = %q", assembled)
	}
}
