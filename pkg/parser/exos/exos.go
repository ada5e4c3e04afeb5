/*
 * Copyright 2026 Coppermesh Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package exos parses Extreme EXOS JSON-RPC CLI output into fabricheck
// facts. Each feature parser plans its own command set and maps the CLI
// record shapes onto the normalized fact model.
package exos

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/parser"
	"github.com/coppermesh/fabricheck/pkg/session"
)

// Family is the device-family key EXOS parsers register under.
const Family = "exos"

// Register adds every EXOS feature parser to the registry.
func Register(r *parser.Registry) {
	r.Register(Family, models.FeatureTopology, &TopologyParser{})
	r.Register(Family, models.FeatureVlans, &VlansParser{})
	r.Register(Family, models.FeatureSwitchports, &SwitchportsParser{})
	r.Register(Family, models.FeatureInterfaces, &InterfacesParser{})
	r.Register(Family, models.FeatureLags, &LagsParser{})
}

// records returns the CLI response record array for one command output.
// EXOS JSON-RPC wraps every CLI response in an array of record objects.
// Parse may run concurrently for different devices, so each call parses
// into its own value tree.
func records(out session.RawOutput) ([]*fastjson.Value, error) {
	v, err := fastjson.ParseBytes(out.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", parser.ErrParse, out.Command, err)
	}

	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: response is not a record array", parser.ErrParse, out.Command)
	}

	return arr, nil
}

// fieldString reads a record field that EXOS emits as either a string or
// a number (port identifiers do both depending on hardware).
func fieldString(obj *fastjson.Value, key, command string) (string, error) {
	v := obj.Get(key)
	if v == nil {
		return "", fmt.Errorf("%w: %q: record missing field %q", parser.ErrParse, command, key)
	}

	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b), nil
	case fastjson.TypeNumber:
		n, _ := v.Int64()
		return strconv.FormatInt(n, 10), nil
	default:
		return "", fmt.Errorf("%w: %q: field %q has type %s", parser.ErrParse, command, key, v.Type())
	}
}

// fieldInt reads a numeric record field, tolerating numeric strings.
func fieldInt(obj *fastjson.Value, key, command string) (int, error) {
	v := obj.Get(key)
	if v == nil {
		return 0, fmt.Errorf("%w: %q: record missing field %q", parser.ErrParse, command, key)
	}

	switch v.Type() {
	case fastjson.TypeNumber:
		n, err := v.Int()
		if err != nil {
			return 0, fmt.Errorf("%w: %q: field %q: %w", parser.ErrParse, command, key, err)
		}

		return n, nil
	case fastjson.TypeString:
		b, _ := v.StringBytes()

		n, err := strconv.Atoi(string(b))
		if err != nil {
			return 0, fmt.Errorf("%w: %q: field %q: %w", parser.ErrParse, command, key, err)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %q: field %q has type %s", parser.ErrParse, command, key, v.Type())
	}
}

// optionalInt reads a numeric field defaulting to zero when absent.
func optionalInt(obj *fastjson.Value, key, command string) (int, error) {
	if obj.Get(key) == nil {
		return 0, nil
	}

	return fieldInt(obj, key, command)
}

func provenance(out session.RawOutput) models.Provenance {
	return models.Provenance{Command: out.Command, Bytes: len(out.Payload)}
}

func missingOutput(command string) error {
	return fmt.Errorf("%w: no output collected for %q", parser.ErrParse, command)
}
