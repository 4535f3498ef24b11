// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultCatalog is the built-in job type classification.
func DefaultCatalog() map[string]Category {
	return map[string]Category{
		"repo.read":     Read,
		"logs.fetch":    Read,
		"metrics.query": Read,

		"code.analyze": Analyze,
		"deps.audit":   Analyze,
		"cost.analyze": Analyze,

		"pr.suggest":       Recommend,
		"config.recommend": Recommend,

		"slack.notify": Notify,
		"email.digest": Notify,

		"pr.create":       Action,
		"deploy.rollback": Action,
		"issue.close":     Action,
		"webhook.invoke":  Action,
	}
}

// Registry maps job types to categories. It is safe for concurrent
// use.
type Registry struct {
	mutex      sync.RWMutex
	categories map[string]Category
}

// NewRegistry returns a registry holding a copy of catalog.
func NewRegistry(catalog map[string]Category) *Registry {
	categories := make(map[string]Category, len(catalog))
	for jobType, category := range catalog {
		categories[jobType] = category
	}
	return &Registry{categories: categories}
}

// Lookup returns the category of jobType. ok is false for job types
// that were never registered.
func (r *Registry) Lookup(jobType string) (category Category, ok bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	category, ok = r.categories[jobType]
	return category, ok
}

// Register adds or reclassifies a job type.
func (r *Registry) Register(jobType string, category Category) error {
	if jobType == "" {
		return fmt.Errorf("job type is empty")
	}
	if category < Read || category > Action {
		return fmt.Errorf("job type %q: invalid category %d", jobType, int(category))
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.categories[jobType] = category
	return nil
}

// JobTypes returns every registered job type, sorted.
func (r *Registry) JobTypes() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	jobTypes := make([]string, 0, len(r.categories))
	for jobType := range r.categories {
		jobTypes = append(jobTypes, jobType)
	}
	sort.Strings(jobTypes)
	return jobTypes
}

// Len returns the number of registered job types.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.categories)
}
