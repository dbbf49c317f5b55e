/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/suparena/entitycrud/crud"
)

// Resource describes one collection exposed over HTTP.
type Resource struct {
	// Path is the mount point, without slashes.
	Path string `yaml:"path" validate:"required"`
	// Name is used in client-facing messages.
	Name string `yaml:"name" validate:"required"`
	// Collection defaults to Path.
	Collection      string            `yaml:"collection"`
	PaginationLimit int64             `yaml:"pagination_limit" validate:"gte=0"`
	OffsetAsLimit   *bool             `yaml:"offset_as_limit"`
	IndexMap        map[string]string `yaml:"index_map"`
}

type resourcesFile struct {
	Resources []Resource `yaml:"resources" validate:"required,min=1,dive"`
}

// CollectionName returns the collection backing the resource.
func (r Resource) CollectionName() string {
	if r.Collection != "" {
		return r.Collection
	}
	return r.Path
}

// Options builds the controller options, falling back to defaultLimit.
func (r Resource) Options(defaultLimit int64) []crud.Option {
	opts := []crud.Option{crud.WithPaginationLimit(defaultLimit)}
	if r.PaginationLimit > 0 {
		opts = append(opts, crud.WithPaginationLimit(r.PaginationLimit))
	}
	if r.OffsetAsLimit != nil {
		opts = append(opts, crud.WithOffsetAsLimit(*r.OffsetAsLimit))
	}
	return opts
}

// LoadResources reads and validates a resources file.
func LoadResources(path string) ([]Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resources file: %w", err)
	}
	return ParseResources(data)
}

// ParseResources decodes a YAML resources document:
//
//	resources:
//	  - path: users
//	    name: User
//	    index_map:
//	      PK: "USER#{_id}"
//	      SK: "PROFILE"
func ParseResources(data []byte) ([]Resource, error) {
	var file resourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse resources: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid resources: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Resources))
	for i := range file.Resources {
		res := &file.Resources[i]
		res.Path = strings.Trim(res.Path, "/")
		if _, dup := seen[res.Path]; dup {
			return nil, fmt.Errorf("invalid resources: duplicate path %q", res.Path)
		}
		seen[res.Path] = struct{}{}

		if len(res.IndexMap) > 0 {
			if res.IndexMap["PK"] == "" || res.IndexMap["SK"] == "" {
				return nil, fmt.Errorf("invalid resources: index_map of %q needs PK and SK", res.Path)
			}
		}
	}
	return file.Resources, nil
}
