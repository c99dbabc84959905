// Package tasks maps task ids to constructors. Each task lives in its
// own sub-package; this package is the single lookup point used by
// configuration files and the command line.
package tasks

import (
	"fmt"
	"sort"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/environment/tasks/opencabinetdrawer"
	"github.com/manipgym/manipgym/environment/tasks/pushcube"
	"github.com/manipgym/manipgym/environment/tasks/stackcube"
)

var factories = map[string]func() environment.Task{
	"StackCube-v1":         func() environment.Task { return stackcube.New() },
	"PushCube-v1":          func() environment.Task { return pushcube.New() },
	"OpenCabinetDrawer-v1": func() environment.Task { return opencabinetdrawer.New() },
}

// New constructs the task registered under id
func New(id string) (environment.Task, error) {
	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("tasks: no task registered under %q", id)
	}
	return f(), nil
}

// Names returns every registered task id in sorted order
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
