package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveFlags replaces the flags section of the config file. Comments and
// formatting in other sections are preserved.
func SaveFlags(configPath string, flags map[string]bool) error {
	var node yaml.Node
	if err := node.Encode(flags); err != nil {
		return fmt.Errorf("building flags node: %w", err)
	}
	return saveSection(configPath, "flags", &node)
}

// SaveList replaces the list section of the config file.
func SaveList(configPath string, list ListConfig) error {
	var node yaml.Node
	if err := node.Encode(list); err != nil {
		return fmt.Errorf("building list node: %w", err)
	}
	return saveSection(configPath, "list", &node)
}

// saveSection swaps the value of a top-level key, appending it when absent,
// and writes the file atomically.
func saveSection(configPath, key string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path is the user's config file
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	switch {
	case doc.Kind == 0:
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind:    yaml.MappingNode,
				Content: []*yaml.Node{keyNode, value},
			}},
		}
	case doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode:
		root := doc.Content[0]
		found := false
		for i := 0; i < len(root.Content)-1; i += 2 {
			if root.Content[i].Value == key {
				root.Content[i+1] = value
				found = true
				break
			}
		}
		if !found {
			root.Content = append(root.Content, keyNode, value)
		}
	default:
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	var buf bytes.Buffer
	if err := encodeDocument(&buf, &doc); err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".vscroll.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// encodeDocument writes doc with two-space indentation. Close flushes the
// emitter, so its error counts as well.
func encodeDocument(w io.Writer, doc *yaml.Node) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return nil
}
