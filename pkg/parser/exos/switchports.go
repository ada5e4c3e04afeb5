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
	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/session"
)

const cmdShowPortsVlan = "show ports vlan port-number"

// SwitchportsParser reads per-port VLAN usage from a single command. A
// port carrying any tagged VLAN is a trunk; untagged-only is access. A
// port in a LAG references its load-share master for VLAN config rather
// than duplicating it, so those ports inherit the master's data.
type SwitchportsParser struct{}

func (*SwitchportsParser) Plan(prior []session.RawOutput) ([]string, error) {
	if len(prior) == 0 {
		return []string{cmdShowPortsVlan}, nil
	}

	return nil, nil
}

type switchportData struct {
	untagged int
	tagged   []int
}

func (*SwitchportsParser) Parse(outputs []session.RawOutput) ([]models.Observed, error) {
	if len(outputs) == 0 {
		return nil, missingOutput(cmdShowPortsVlan)
	}

	recs, err := records(outputs[0])
	if err != nil {
		return nil, err
	}

	byPort := make(map[string]*switchportData)

	var order []string

	for _, rec := range recs {
		info := rec.Get("show_ports_info_detail_vlans")
		if info == nil {
			continue
		}

		port, err := fieldString(info, "port", cmdShowPortsVlan)
		if err != nil {
			return nil, err
		}

		vlanID, err := fieldInt(info, "vlanId", cmdShowPortsVlan)
		if err != nil {
			return nil, err
		}

		tagStatus, err := fieldInt(info, "tagStatus", cmdShowPortsVlan)
		if err != nil {
			return nil, err
		}

		data, ok := byPort[port]
		if !ok {
			data = &switchportData{}
			byPort[port] = data
			order = append(order, port)
		}

		if tagStatus == 1 {
			data.tagged = append(data.tagged, vlanID)
		} else {
			data.untagged = vlanID
		}
	}

	// Second pass: LAG member ports inherit the load-share master's
	// switchport data.
	for _, rec := range recs {
		info := rec.Get("show_ports_info")
		if info == nil || info.Get("ldShareMaster") == nil {
			continue
		}

		master, err := fieldString(info, "ldShareMaster", cmdShowPortsVlan)
		if err != nil {
			return nil, err
		}

		port, err := fieldString(info, "port", cmdShowPortsVlan)
		if err != nil {
			return nil, err
		}

		if port == master {
			continue
		}

		if _, ok := byPort[port]; ok {
			continue
		}

		masterData, ok := byPort[master]
		if !ok {
			continue
		}

		byPort[port] = masterData
		order = append(order, port)
	}

	observed := make([]models.Observed, 0, len(order))

	for _, port := range order {
		data := byPort[port]

		mode := models.ModeAccess
		if len(data.tagged) > 0 {
			mode = models.ModeTrunk
		}

		observed = append(observed, models.Observed{
			Fact: &models.SwitchportFact{
				Port:         port,
				Mode:         mode,
				UntaggedVlan: data.untagged,
				TaggedVlans:  data.tagged,
			},
			Source: provenance(outputs[0]),
		})
	}

	return observed, nil
}
