// Package filesystem finds and watches indexable files on local disk.
//
// Collect expands paths into the supported files beneath them. Watcher
// streams debounced create, update and delete events through fsnotify.
// Hidden files and directories are skipped by both.
package filesystem
