/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader implements the bootstrap class loader, the
// linker, and the class-initialization state machine of spec.md §4.5,
// in the shape artipop-jacobin/src/classloader/classloader.go lays
// out: a classpath of entries searched in order, a method-area
// registry keyed by binary class name, and a format-check/link/init
// pipeline that runs once per class.
package classloader

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// Entry is one classpath element: a directory or a JAR/ZIP archive,
// mirroring the two LoadClassFromFile/LoadClassFromJar paths the
// teacher's classloader exposes.
type Entry interface {
	// Find returns the raw .class bytes for binaryName (slashes, no
	// extension), or found=false if this entry does not contain it.
	Find(binaryName string) (data []byte, found bool, err error)
	String() string
}

// DirEntry is a classpath entry rooted at a directory on disk.
type DirEntry struct {
	Root string
}

func (d *DirEntry) Find(binaryName string) ([]byte, bool, error) {
	path := filepath.Join(d.Root, filepath.FromSlash(binaryName)+".class")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, vmerr.Wrap(err, "reading class file "+path)
	}
	return data, true, nil
}

func (d *DirEntry) String() string { return d.Root }

// JarEntry is a classpath entry backed by a JAR/ZIP archive, read with
// the standard library's archive/zip (no third-party ZIP reader
// appears anywhere in the retrieved pack, so this is the one
// deliberately stdlib domain component; see DESIGN.md).
type JarEntry struct {
	path    string
	reader  *zip.ReadCloser
	byName  map[string]*zip.File
}

// OpenJar opens a JAR file and indexes its entries by the class name
// each .class member corresponds to.
func OpenJar(path string) (*JarEntry, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, vmerr.Wrap(err, "opening jar "+path)
	}
	je := &JarEntry{path: path, reader: r, byName: make(map[string]*zip.File)}
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		name := strings.TrimSuffix(f.Name, ".class")
		je.byName[name] = f
	}
	return je, nil
}

func (j *JarEntry) Find(binaryName string) ([]byte, bool, error) {
	f, ok := j.byName[binaryName]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false, vmerr.Wrap(err, "opening jar entry "+binaryName)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, vmerr.Wrap(err, "reading jar entry "+binaryName)
	}
	return data, true, nil
}

func (j *JarEntry) String() string { return j.path }

func (j *JarEntry) Close() error { return j.reader.Close() }

// NewClasspath builds classpath entries from a list of directory or
// archive paths, per spec.md §6's -classpath / RSVM_OPTIONS handling.
func NewClasspath(paths []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, vmerr.Wrap(err, "resolving classpath entry "+p)
		}
		if info.IsDir() {
			entries = append(entries, &DirEntry{Root: p})
			continue
		}
		if strings.HasSuffix(p, ".jar") || strings.HasSuffix(p, ".zip") {
			je, err := OpenJar(p)
			if err != nil {
				return nil, err
			}
			entries = append(entries, je)
			continue
		}
		return nil, vmerr.New(vmerr.FormatViolation, "unsupported classpath entry "+p)
	}
	return entries, nil
}
