// Package loader materializes a service definition file into a validated
// Definition: stages resolved to clusters, schema payload assembled, secrets
// derived. The original file text is kept verbatim so structural patches can
// be applied without re-serializing (and thereby reformatting) the document.
package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"stagectl/internal/auth"
	apperrors "stagectl/internal/errors"
	"stagectl/internal/environment"
	"stagectl/internal/patcher"
	"stagectl/internal/resolver"
	"stagectl/internal/schema"
	"stagectl/pkg/definition"
)

// DefaultStage is the stage consulted when a lookup misses.
const DefaultStage = "default"

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Options configures a single load. Registry is required for cluster
// validation; Fs defaults to the OS filesystem.
type Options struct {
	Path     string
	EnvFile  string
	Registry *environment.Registry
	Fs       afero.Fs
}

// Definition is the materialized result of one load. It is not safe for
// concurrent use; independent loads produce independent Definitions.
type Definition struct {
	service     string
	stages      map[string]string
	rawStages   map[string]string
	schema      string
	secrets     auth.Secrets
	disableAuth bool

	raw  []byte
	path string
	fs   afero.Fs
}

// Load runs the full pipeline: read, overlay, parse, resolve, validate
// clusters, assemble schema, derive secrets. Every step is a hard stop; no
// partial Definition is returned on failure.
func Load(opts Options) (*Definition, error) {
	if opts.Path == "" {
		return nil, &apperrors.NoDefinitionFileError{}
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	// Environment overlay is best-effort; a missing file is not fatal.
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			slog.Debug("Environment overlay not loaded", "path", opts.EnvFile, "error", err)
		}
	}

	raw, err := afero.ReadFile(fs, opts.Path)
	if err != nil {
		return nil, apperrors.NewFileSystemError(
			fmt.Sprintf("Could not read definition file %s", opts.Path),
			"The file may not exist or may not be readable",
			"Check the path passed via --file",
			err,
		)
	}

	var file definition.File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, &apperrors.ParseError{Path: opts.Path, Err: err}
	}
	if err := validate.Struct(&file); err != nil {
		return nil, &apperrors.ParseError{Path: opts.Path, Err: formatValidationError(err)}
	}
	slog.Info("Definition parsed", "path", opts.Path, "stages", len(file.Stages))

	rawStages := make(map[string]string, len(file.Stages))
	for stage, target := range file.Stages {
		rawStages[stage] = target
	}

	resolved, err := resolver.Resolve(file.Stages)
	if err != nil {
		return nil, err
	}

	registry := opts.Registry
	if registry == nil {
		registry = environment.NewRegistry(nil)
	}
	if err := resolver.ValidateClusters(resolved, registry); err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(opts.Path)
	assembled, err := schema.Assemble(fs, baseDir, file.Datamodel)
	if err != nil {
		return nil, err
	}

	secrets, err := auth.ParseSecrets(file.Secret, file.DisableAuth)
	if err != nil {
		return nil, err
	}
	slog.Info("Definition loaded", "path", opts.Path, "authDisabled", !secrets.Enabled())

	return &Definition{
		service:     serviceName(file.Service, opts.Path),
		stages:      resolved,
		rawStages:   rawStages,
		schema:      assembled,
		secrets:     secrets,
		disableAuth: file.DisableAuth,
		raw:         raw,
		path:        opts.Path,
		fs:          fs,
	}, nil
}

// serviceName falls back to the definition file's directory name when the
// file does not name the service.
func serviceName(declared, path string) string {
	if declared != "" {
		return declared
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Base(filepath.Dir(abs))
}

// Service returns the service name.
func (d *Definition) Service() string { return d.service }

// Stages returns the resolved stage -> cluster mapping.
func (d *Definition) Stages() map[string]string { return d.stages }

// RawStages returns the pre-resolution mapping, for diagnostics and diffing.
func (d *Definition) RawStages() map[string]string { return d.rawStages }

// Schema returns the assembled datamodel payload.
func (d *Definition) Schema() string { return d.schema }

// Secrets returns the derived signing secrets (nil when auth is disabled).
func (d *Definition) Secrets() auth.Secrets { return d.secrets }

// Raw returns the current in-memory definition text.
func (d *Definition) Raw() []byte { return d.raw }

// Path returns the source file path.
func (d *Definition) Path() string { return d.path }

// Stage returns the cluster bound to a stage, falling back to the "default"
// stage when the name is not itself a stage. With strict set, a miss fails
// with a StageNotFoundError; otherwise it returns ("", nil).
func (d *Definition) Stage(name string, strict bool) (string, error) {
	if cluster, ok := d.stages[name]; ok {
		return cluster, nil
	}
	if cluster, ok := d.stages[DefaultStage]; ok {
		return cluster, nil
	}
	if strict {
		return "", &apperrors.StageNotFoundError{Stage: name}
	}
	return "", nil
}

// Default returns the cluster bound to the literal "default" stage.
func (d *Definition) Default() (string, bool) {
	cluster, ok := d.stages[DefaultStage]
	return cluster, ok
}

// AddStage patches the in-memory text with a new stage binding. The change is
// not persisted until Save is called.
func (d *Definition) AddStage(stage, cluster string) error {
	return d.Patch("stages", fmt.Sprintf("  %s: %s\n", stage, cluster))
}

// Patch splices insertion under the given top-level key in the in-memory
// text. Only the in-memory copy changes; Save persists it.
func (d *Definition) Patch(key, insertion string) error {
	patched, err := patcher.Patch(d.raw, key, insertion)
	if err != nil {
		return err
	}
	d.raw = patched
	return nil
}

// Save overwrites the source file with the current in-memory text, writing
// through a temp file and renaming so a crash cannot leave a torn file.
func (d *Definition) Save() error {
	dir := filepath.Dir(d.path)

	temp, err := afero.TempFile(d.fs, dir, ".stagectl.*.yml")
	if err != nil {
		return apperrors.NewFileSystemError(
			fmt.Sprintf("Could not save definition file %s", d.path),
			"Failed to create a temporary file next to the definition",
			"Check that the directory is writable",
			err,
		)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(d.raw); err != nil {
		_ = temp.Close()
		_ = d.fs.Remove(tempPath)
		return fmt.Errorf("failed to write definition file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = d.fs.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := d.fs.Rename(tempPath, d.path); err != nil {
		_ = d.fs.Remove(tempPath)
		return fmt.Errorf("failed to replace definition file: %w", err)
	}

	slog.Info("Definition saved", "path", d.path)
	return nil
}
