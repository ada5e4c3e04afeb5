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

package exos

import (
	"strings"

	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/session"
)

const cmdShowVlan = "show vlan"

// VlansParser enumerates VLANs with "show vlan", then queries each VLAN
// by name for its member ports. Ports the device reports as "invalid"
// placeholders are excluded.
type VlansParser struct{}

func (*VlansParser) Plan(prior []session.RawOutput) ([]string, error) {
	if len(prior) == 0 {
		return []string{cmdShowVlan}, nil
	}

	// Follow-up round: one membership query per enumerated VLAN.
	if len(prior) == 1 {
		entries, err := vlanTable(prior[0])
		if err != nil {
			return nil, err
		}

		cmds := make([]string, 0, len(entries))
		for _, e := range entries {
			cmds = append(cmds, cmdShowVlan+" "+e.name)
		}

		return cmds, nil
	}

	return nil, nil
}

func (*VlansParser) Parse(outputs []session.RawOutput) ([]models.Observed, error) {
	if len(outputs) == 0 {
		return nil, missingOutput(cmdShowVlan)
	}

	entries, err := vlanTable(outputs[0])
	if err != nil {
		return nil, err
	}

	details := make(map[string]session.RawOutput, len(outputs)-1)
	for _, out := range outputs[1:] {
		details[out.Command] = out
	}

	observed := make([]models.Observed, 0, len(entries))

	for _, e := range entries {
		detail, ok := details[cmdShowVlan+" "+e.name]
		if !ok {
			return nil, missingOutput(cmdShowVlan + " " + e.name)
		}

		ports, err := vlanMemberPorts(detail)
		if err != nil {
			return nil, err
		}

		observed = append(observed, models.Observed{
			Fact: &models.VlanFact{
				VlanID:      e.tag,
				Name:        e.name,
				MemberPorts: ports,
			},
			Source: provenance(detail),
		})
	}

	return observed, nil
}

type vlanEntry struct {
	tag  int
	name string
}

// vlanTable reads the VLAN enumeration in record order.
func vlanTable(out session.RawOutput) ([]vlanEntry, error) {
	recs, err := records(out)
	if err != nil {
		return nil, err
	}

	entries := make([]vlanEntry, 0, len(recs))

	for _, rec := range recs {
		proc := rec.Get("vlanProc")
		if proc == nil {
			continue
		}

		tag, err := fieldInt(proc, "tag", out.Command)
		if err != nil {
			return nil, err
		}

		name, err := fieldString(proc, "name1", out.Command)
		if err != nil {
			return nil, err
		}

		entries = append(entries, vlanEntry{tag: tag, name: name})
	}

	return entries, nil
}

func vlanMemberPorts(out session.RawOutput) ([]string, error) {
	recs, err := records(out)
	if err != nil {
		return nil, err
	}

	var ports []string

	for _, rec := range recs {
		proc := rec.Get("vlanProc")
		if proc == nil {
			continue
		}

		if proc.Get("port") == nil {
			continue
		}

		port, err := fieldString(proc, "port", out.Command)
		if err != nil {
			return nil, err
		}

		// EXOS pads the membership list with "invalid" placeholder rows.
		if strings.HasPrefix(port, "invalid") {
			continue
		}

		ports = append(ports, port)
	}

	return ports, nil
}
