// Package source loads policy bundles from external locations.
//
// Three sources exist: a file source reading YAML or JSON bundles from a
// directory (with fsnotify change notification), a git source cloning a
// repository and pulling on an interval, and a memory source for tests. A
// bundle is one policy document per file. Sources only load and watch;
// validation and publication happen in the policy registry.
package source
