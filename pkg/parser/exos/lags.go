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

const cmdShowLacp = "show lacp"

// LagsParser enumerates LACP groups then queries each group for member
// state. The design convention names a LAG interface "lag" + group id,
// because group ids overlap with real port numbers. A member is bundled
// when its actor state carries the collecting-distributing flags; a LAG
// is enabled when at least one member is bundled.
type LagsParser struct{}

func (*LagsParser) Plan(prior []session.RawOutput) ([]string, error) {
	if len(prior) == 0 {
		return []string{cmdShowLacp}, nil
	}

	if len(prior) == 1 {
		groups, err := lacpGroups(prior[0])
		if err != nil {
			return nil, err
		}

		cmds := make([]string, 0, len(groups))
		for _, id := range groups {
			cmds = append(cmds, cmdShowLacp+" lag "+id)
		}

		return cmds, nil
	}

	return nil, nil
}

func (*LagsParser) Parse(outputs []session.RawOutput) ([]models.Observed, error) {
	if len(outputs) == 0 {
		return nil, missingOutput(cmdShowLacp)
	}

	groups, err := lacpGroups(outputs[0])
	if err != nil {
		return nil, err
	}

	details := make(map[string]session.RawOutput, len(outputs)-1)
	for _, out := range outputs[1:] {
		details[out.Command] = out
	}

	observed := make([]models.Observed, 0, len(groups))

	for _, id := range groups {
		detail, ok := details[cmdShowLacp+" lag "+id]
		if !ok {
			return nil, missingOutput(cmdShowLacp + " lag " + id)
		}

		fact, err := lagFact(id, detail)
		if err != nil {
			return nil, err
		}

		observed = append(observed, models.Observed{Fact: fact, Source: provenance(detail)})
	}

	return observed, nil
}

func lacpGroups(out session.RawOutput) ([]string, error) {
	recs, err := records(out)
	if err != nil {
		return nil, err
	}

	var groups []string

	for _, rec := range recs {
		cfg := rec.Get("lacpLagCfg")
		if cfg == nil {
			continue
		}

		id, err := fieldString(cfg, "group_id", out.Command)
		if err != nil {
			return nil, err
		}

		groups = append(groups, id)
	}

	return groups, nil
}

func lagFact(groupID string, out session.RawOutput) (*models.LagFact, error) {
	recs, err := records(out)
	if err != nil {
		return nil, err
	}

	var (
		members []string
		bundled bool
	)

	for _, rec := range recs {
		member := rec.Get("lagMemberPortCfg")
		if member == nil {
			continue
		}

		port, err := fieldString(member, "port_number", out.Command)
		if err != nil {
			return nil, err
		}

		actorState, err := fieldString(member, "actor_state", out.Command)
		if err != nil {
			return nil, err
		}

		if strings.Contains(actorState, "CD") {
			bundled = true
		}

		members = append(members, port)
	}

	return &models.LagFact{
		Name:        "lag" + groupID,
		Enabled:     bundled,
		MemberPorts: members,
	}, nil
}
