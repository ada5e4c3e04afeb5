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

const cmdLLDPNeighbors = "show lldp neighbors"

// TopologyParser reads LLDP adjacency from "show lldp neighbors". One
// neighbor record per local port.
type TopologyParser struct{}

func (*TopologyParser) Plan(prior []session.RawOutput) ([]string, error) {
	if len(prior) == 0 {
		return []string{cmdLLDPNeighbors}, nil
	}

	return nil, nil
}

func (*TopologyParser) Parse(outputs []session.RawOutput) ([]models.Observed, error) {
	if len(outputs) == 0 {
		return nil, missingOutput(cmdLLDPNeighbors)
	}

	recs, err := records(outputs[0])
	if err != nil {
		return nil, err
	}

	observed := make([]models.Observed, 0, len(recs))

	for _, rec := range recs {
		info := rec.Get("lldpPortNbrInfoShort")
		if info == nil {
			continue
		}

		port, err := fieldString(info, "port", cmdLLDPNeighbors)
		if err != nil {
			return nil, err
		}

		remoteDevice, err := fieldString(info, "nbrSysName", cmdLLDPNeighbors)
		if err != nil {
			return nil, err
		}

		remotePort, err := fieldString(info, "nbrPortID", cmdLLDPNeighbors)
		if err != nil {
			return nil, err
		}

		observed = append(observed, models.Observed{
			Fact: &models.NeighborFact{
				LocalPort:    port,
				RemoteDevice: remoteDevice,
				RemotePort:   remotePort,
			},
			Source: provenance(outputs[0]),
		})
	}

	return observed, nil
}
