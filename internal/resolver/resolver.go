// Package resolver turns the raw stage mapping of a service definition into
// stage -> cluster bindings. A stage value may name another stage (an alias),
// so resolution chases the chain until it lands on something that is not a
// key in the mapping.
package resolver

import (
	"sort"

	apperrors "stagectl/internal/errors"
	"stagectl/internal/environment"
)

// Resolve maps every stage to its terminal cluster name. Resolution is
// per-key with an explicit visited set, so a chain that revisits a key fails
// with a CyclicAliasError instead of recursing forever.
func Resolve(stages map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(stages))

	for stage := range stages {
		target, err := resolveOne(stages, stage)
		if err != nil {
			return nil, err
		}
		resolved[stage] = target
	}

	return resolved, nil
}

func resolveOne(stages map[string]string, stage string) (string, error) {
	visited := map[string]bool{stage: true}

	value := stages[stage]
	for {
		next, isAlias := stages[value]
		if !isAlias {
			return value, nil
		}
		if visited[value] {
			return "", &apperrors.CyclicAliasError{Stage: value}
		}
		visited[value] = true
		value = next
	}
}

// ValidateClusters checks every resolved cluster against the registry. Stages
// are visited in sorted order so the first offender reported is deterministic.
func ValidateClusters(resolved map[string]string, registry *environment.Registry) error {
	stages := make([]string, 0, len(resolved))
	for stage := range resolved {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	for _, stage := range stages {
		cluster := resolved[stage]
		if !registry.Has(cluster) {
			return &apperrors.UnknownClusterError{Stage: stage, Cluster: cluster}
		}
	}

	return nil
}
