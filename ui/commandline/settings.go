// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline contains the command-line support of the pPIM compiler: topology settings,
// compilation reports and the batch progress bar.
package commandline

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
)

type topologySetting struct {
	description string
	get         func(t *layout.Topology) string
	set         func(t *layout.Topology, value string) error
}

func intSetting(description string, field func(t *layout.Topology) *int) topologySetting {
	return topologySetting{
		description: description,
		get:         func(t *layout.Topology) string { return strconv.Itoa(*field(t)) },
		set: func(t *layout.Topology, value string) error {
			v, err := strconv.Atoi(strings.ReplaceAll(value, "_", ""))
			if err != nil {
				return err
			}
			*field(t) = v
			return nil
		},
	}
}

var topologySettings = map[string]topologySetting{
	"cores": intSetting("number of PIM cores",
		func(t *layout.Topology) *int { return &t.NumCores }),
	"block_size": intSetting("side of the square tiles assigned round-robin to cores",
		func(t *layout.Topology) *int { return &t.BlockSize }),
	"bytes_per_element": intSetting("bytes per matrix element",
		func(t *layout.Topology) *int { return &t.BytesPerElement }),
	"prog_row_stride": intSetting("distance between the LUT storage rows of consecutive cores",
		func(t *layout.Topology) *int { return &t.ProgrammingRowStride }),
	"row_span": intSetting("rows owned by each core, used by row_addr=local",
		func(t *layout.Topology) *int { return &t.RowSpan }),
	"row_addr": {
		description: `how addresses are stored in the 8-bit row_addr field: "local" or "strict"`,
		get:         func(t *layout.Topology) string { return t.RowAddrMode.String() },
		set: func(t *layout.Topology, value string) error {
			mode, err := layout.ParseRowAddrMode(value)
			if err != nil {
				return err
			}
			t.RowAddrMode = mode
			return nil
		},
	},
}

// ParseTopologySettings updates topology from settings -- typically the contents of a flag set by the user.
// The settings are a list separated by ";": e.g.: "cores=4;block_size=1".
//
// An entry "file:<path>" reads settings from the file, one or more per line, ignoring empty lines and
// lines starting with "#". For integer values "_" can be used as a digit separator.
//
// It returns the names of the settings set, in order, and the resulting topology is validated.
func ParseTopologySettings(topology *layout.Topology, settings string) (settingsSet []string, err error) {
	settingsSet, err = parseTopologySettings(topology, settings, nil)
	if err != nil {
		return
	}
	err = topology.Validate()
	return
}

func parseTopologySettings(topology *layout.Topology, settings string, settingsSet []string) ([]string, error) {
	for _, setting := range strings.Split(settings, ";") {
		setting = strings.TrimSpace(setting)
		if setting == "" {
			continue
		}
		if filePath, found := strings.CutPrefix(setting, "file:"); found {
			contents, err := os.ReadFile(filePath)
			if err != nil {
				return settingsSet, errors.Wrapf(err, "failed to read settings from file %q", filePath)
			}
			for _, line := range strings.Split(string(contents), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				settingsSet, err = parseTopologySettings(topology, line, settingsSet)
				if err != nil {
					return settingsSet, err
				}
			}
			continue
		}
		name, value, found := strings.Cut(setting, "=")
		if !found {
			return settingsSet, errors.Errorf("can't parse setting %q: each setting requires the format \"<name>=<value>\"", setting)
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		s, found := topologySettings[name]
		if !found {
			return settingsSet, errors.Errorf("unknown topology setting %q, valid settings are %q", name, settingNames())
		}
		if err := s.set(topology, value); err != nil {
			return settingsSet, errors.Wrapf(err, "failed to parse value %q for setting %q", value, name)
		}
		settingsSet = append(settingsSet, name)
	}
	return settingsSet, nil
}

func settingNames() []string {
	names := make([]string, 0, len(topologySettings))
	for name := range topologySettings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SprintTopologySettings returns the topology formatted as settings, parseable by ParseTopologySettings.
func SprintTopologySettings(topology layout.Topology) string {
	names := settingNames()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, topologySettings[name].get(&topology)))
	}
	return strings.Join(parts, ";")
}

// CreateTopologySettingsFlag creates a string flag with the given flagName (if empty it will be named
// "set"), describing the available settings and their default values.
//
// The flag should be created before the call to `flag.Parse()`.
func CreateTopologySettingsFlag(flagName string) *string {
	if flagName == "" {
		flagName = "set"
	}
	defaults := layout.DefaultTopology()
	var parts []string
	parts = append(parts, `Set the accelerator topology. `+
		`It should be a list of elements "setting=value" separated by ";". `+
		`It can also be given an entry like: "file:settings_file.txt", in `+
		`which case the file will be read and the settings will be parsed, `+
		`with new-lines working as ";" and lines starting with "#" considered comments. `+
		`Available settings:`)
	for _, name := range settingNames() {
		s := topologySettings[name]
		parts = append(parts, fmt.Sprintf("\n\t%q: %s (default %s)", name, s.description, s.get(&defaults)))
	}
	return flag.String(flagName, "", strings.Join(parts, ""))
}
