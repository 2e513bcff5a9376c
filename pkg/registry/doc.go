// Package registry tracks installed script implementations by name and
// version and discovers them from script directories.
package registry
