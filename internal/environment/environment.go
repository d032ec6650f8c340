// Package environment provides the read-only cluster registry consulted when
// validating a service definition. Clusters are described in a small YAML
// file, e.g.:
//
//	clusters:
//	  - name: local
//	  - name: eu-west-1
package environment

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Cluster is a named target infrastructure environment.
type Cluster struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
}

// Registry is the set of known clusters. It is read-only after Load.
type Registry struct {
	clusters []Cluster
	byName   map[string]Cluster
}

type registryFile struct {
	Clusters []Cluster `mapstructure:"clusters"`
}

// Load reads a clusters file. An empty path or a missing file yields an empty
// registry; callers decide whether that is acceptable.
func Load(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(nil), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewRegistry(nil), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read clusters file %s: %w", path, err)
	}

	var rf registryFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, fmt.Errorf("failed to parse clusters file %s: %w", path, err)
	}

	return NewRegistry(rf.Clusters), nil
}

// NewRegistry builds a registry from an explicit cluster list.
func NewRegistry(clusters []Cluster) *Registry {
	byName := make(map[string]Cluster, len(clusters))
	for _, c := range clusters {
		byName[c.Name] = c
	}
	return &Registry{clusters: clusters, byName: byName}
}

// Has reports whether a cluster with the given name is known.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the known cluster names in file order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clusters))
	for _, c := range r.clusters {
		names = append(names, c.Name)
	}
	return names
}
