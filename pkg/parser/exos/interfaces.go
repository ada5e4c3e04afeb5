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
	"github.com/valyala/fastjson"

	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/session"
)

const (
	cmdShowPortsInfo = "show ports information"
	cmdShowPorts     = "show ports"

	// linkState 2 marks a "not present" port, excluded from facts.
	linkStateUp         = 1
	linkStateNotPresent = 2
)

// InterfacesParser measures front-panel port state plus SVIs. The port
// summary does not always list every port the information table knows
// about, so missing ports get a per-port follow-up query. SVIs are VLANs
// carrying an IP address, discovered via "show vlan".
type InterfacesParser struct{}

func (*InterfacesParser) Plan(prior []session.RawOutput) ([]string, error) {
	if len(prior) == 0 {
		return []string{cmdShowPortsInfo, cmdShowPorts, cmdShowVlan}, nil
	}

	if len(prior) == 3 {
		missing, err := missingDetailPorts(prior[0], prior[1])
		if err != nil {
			return nil, err
		}

		cmds := make([]string, 0, len(missing))
		for _, port := range missing {
			cmds = append(cmds, cmdShowPorts+" "+port)
		}

		return cmds, nil
	}

	return nil, nil
}

func (*InterfacesParser) Parse(outputs []session.RawOutput) ([]models.Observed, error) {
	if len(outputs) < 3 {
		return nil, missingOutput(cmdShowPortsInfo)
	}

	var observed []models.Observed

	seen := make(map[string]struct{})

	// Detail records: the summary output first, then any per-port
	// follow-ups, in plan order.
	for _, out := range append([]session.RawOutput{outputs[1]}, outputs[3:]...) {
		recs, err := records(out)
		if err != nil {
			return nil, err
		}

		for _, rec := range recs {
			detail := rec.Get("show_ports_info_detail")
			if detail == nil {
				continue
			}

			fact, err := portFact(detail, out.Command)
			if err != nil {
				return nil, err
			}

			if fact == nil {
				continue
			}

			if _, dup := seen[fact.Port]; dup {
				continue
			}

			seen[fact.Port] = struct{}{}

			observed = append(observed, models.Observed{Fact: fact, Source: provenance(out)})
		}
	}

	// SVIs: VLANs with an IP address configured.
	svis, err := sviFacts(outputs[2])
	if err != nil {
		return nil, err
	}

	for _, svi := range svis {
		if _, dup := seen[svi.Fact.(*models.InterfaceFact).Port]; dup {
			continue
		}

		observed = append(observed, svi)
	}

	return observed, nil
}

// portFact maps one detail record to a fact, or nil for a not-present
// port.
func portFact(detail *fastjson.Value, command string) (*models.InterfaceFact, error) {
	linkState, err := fieldInt(detail, "linkState", command)
	if err != nil {
		return nil, err
	}

	if linkState == linkStateNotPresent {
		return nil, nil
	}

	port, err := fieldString(detail, "port", command)
	if err != nil {
		return nil, err
	}

	adminState, err := fieldInt(detail, "adminState", command)
	if err != nil {
		return nil, err
	}

	speedCode, err := optionalInt(detail, "portSpeed", command)
	if err != nil {
		return nil, err
	}

	return &models.InterfaceFact{
		Port:      port,
		Used:      adminState == 1,
		OperUp:    linkState == linkStateUp,
		Desc:      portDesc(detail),
		SpeedMbps: speedMbps(speedCode, port),
	}, nil
}

func portDesc(detail *fastjson.Value) string {
	if v := detail.Get("descriptionString"); v != nil && v.Type() == fastjson.TypeString {
		b, _ := v.StringBytes()
		if len(b) > 0 {
			return string(b)
		}
	}

	if v := detail.Get("displayString"); v != nil && v.Type() == fastjson.TypeString {
		b, _ := v.StringBytes()
		return string(b)
	}

	return ""
}

// speedMbps maps the EXOS speed code onto Mb/s. The management port
// reports no usable code and is fixed gigabit.
func speedMbps(code int, port string) int {
	switch code {
	case 1:
		return 10
	case 2:
		return 100
	case 3:
		return 1000
	case 4:
		return 10000
	default:
		if port == "Mgmt" {
			return 1000
		}

		return 0
	}
}

func sviFacts(out session.RawOutput) ([]models.Observed, error) {
	recs, err := records(out)
	if err != nil {
		return nil, err
	}

	var observed []models.Observed

	for _, rec := range recs {
		proc := rec.Get("vlanProc")
		if proc == nil {
			continue
		}

		ipStatus, err := optionalInt(proc, "ipStatus", out.Command)
		if err != nil {
			return nil, err
		}

		if ipStatus == 0 {
			continue
		}

		name, err := fieldString(proc, "name1", out.Command)
		if err != nil {
			return nil, err
		}

		adminState, err := optionalInt(proc, "adminState", out.Command)
		if err != nil {
			return nil, err
		}

		linkState, err := optionalInt(proc, "linkState", out.Command)
		if err != nil {
			return nil, err
		}

		observed = append(observed, models.Observed{
			Fact: &models.InterfaceFact{
				Port:   name,
				Used:   adminState == 1,
				OperUp: linkState == linkStateUp || ipStatus != 0,
			},
			Source: provenance(out),
		})
	}

	return observed, nil
}

// missingDetailPorts finds ports in the information table absent from the
// summary table, in information-table order.
func missingDetailPorts(infoOut, detailOut session.RawOutput) ([]string, error) {
	infoRecs, err := records(infoOut)
	if err != nil {
		return nil, err
	}

	detailRecs, err := records(detailOut)
	if err != nil {
		return nil, err
	}

	inDetail := make(map[string]struct{})

	for _, rec := range detailRecs {
		detail := rec.Get("show_ports_info_detail")
		if detail == nil {
			continue
		}

		port, err := fieldString(detail, "port", detailOut.Command)
		if err != nil {
			return nil, err
		}

		inDetail[port] = struct{}{}
	}

	var missing []string

	for _, rec := range infoRecs {
		info := rec.Get("show_ports_info")
		if info == nil {
			continue
		}

		port, err := fieldString(info, "port", infoOut.Command)
		if err != nil {
			return nil, err
		}

		if _, ok := inDetail[port]; !ok {
			missing = append(missing, port)
		}
	}

	return missing, nil
}
