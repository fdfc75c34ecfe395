package sync

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
)

type MappingFile struct {
	Name   string
	Reader io.Reader
	Length int
}

type EmbeddedMappings struct {
	Root  string
	Files EmbeddedFS
}

type EmbeddedFS interface {
	Open(name string) (fs.File, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

func (em EmbeddedMappings) MustFindRootMappingFile(filename string) (MappingFile, error) {
	var result MappingFile
	name := path.Join(em.Root, filename)
	mappings, err := em.Files.ReadFile(name)
	if err == nil {
		result.Name = name
		result.Reader = bytes.NewReader(mappings)
		result.Length = len(mappings)
	}
	return result, err
}

func (em EmbeddedMappings) MustFindRequiredMappingFile() (MappingFile, error) {
	return em.MustFindRootMappingFile("required.yaml")
}

func (em EmbeddedMappings) MustFindDefaultsMappingFile() (MappingFile, error) {
	return em.MustFindRootMappingFile("defaults.yaml")
}

// ReadMappingFile reads an operator supplied mapping file from disk.
// An empty filename yields an empty MappingFile which Unmarshal skips.
func ReadMappingFile(filename string) (MappingFile, error) {
	var result MappingFile
	if filename == "" {
		return result, nil
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return result, fmt.Errorf("failed to read mapping file %s: %w", filename, err)
	}
	result.Name = filename
	result.Reader = bytes.NewReader(b)
	result.Length = len(b)
	return result, nil
}
