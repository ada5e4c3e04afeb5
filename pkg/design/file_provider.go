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

package design

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/coppermesh/fabricheck/pkg/models"
)

// deviceDesign is the on-disk schema of one device design file. Section
// order within each list is preserved; it drives reconciliation order.
type deviceDesign struct {
	Topology []struct {
		Port         string `yaml:"port"`
		RemoteDevice string `yaml:"remote_device"`
		RemotePort   string `yaml:"remote_port"`
	} `yaml:"topology"`

	Vlans []struct {
		ID    int      `yaml:"id"`
		Name  string   `yaml:"name"`
		Ports []string `yaml:"ports"`
	} `yaml:"vlans"`

	Switchports []struct {
		Port     string `yaml:"port"`
		Mode     string `yaml:"mode"`
		Untagged int    `yaml:"untagged"`
		Tagged   []int  `yaml:"tagged"`
	} `yaml:"switchports"`

	Interfaces []struct {
		Port     string `yaml:"port"`
		Used     bool   `yaml:"used"`
		OperUp   bool   `yaml:"oper_up"`
		Desc     string `yaml:"desc"`
		Speed    int    `yaml:"speed"`
		Reserved bool   `yaml:"reserved"`
	} `yaml:"interfaces"`

	Lags []struct {
		Name    string   `yaml:"name"`
		Enabled bool     `yaml:"enabled"`
		Ports   []string `yaml:"ports"`
	} `yaml:"lags"`
}

// FileProvider reads device designs from <dir>/<device>.yaml. Files are
// parsed once and cached for the lifetime of the provider.
type FileProvider struct {
	dir string

	mu    sync.Mutex
	cache map[string]*deviceDesign
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{
		dir:   dir,
		cache: make(map[string]*deviceDesign),
	}
}

func (p *FileProvider) Expected(_ context.Context, deviceName string, feature models.Feature) ([]models.Fact, error) {
	d, err := p.load(deviceName)
	if err != nil {
		return nil, err
	}

	switch feature {
	case models.FeatureTopology:
		facts := make([]models.Fact, 0, len(d.Topology))
		for _, n := range d.Topology {
			facts = append(facts, &models.NeighborFact{
				LocalPort:    n.Port,
				RemoteDevice: n.RemoteDevice,
				RemotePort:   n.RemotePort,
			})
		}

		return facts, nil

	case models.FeatureVlans:
		facts := make([]models.Fact, 0, len(d.Vlans))
		for _, v := range d.Vlans {
			facts = append(facts, &models.VlanFact{
				VlanID:      v.ID,
				Name:        v.Name,
				MemberPorts: v.Ports,
			})
		}

		return facts, nil

	case models.FeatureSwitchports:
		facts := make([]models.Fact, 0, len(d.Switchports))
		for _, s := range d.Switchports {
			facts = append(facts, &models.SwitchportFact{
				Port:         s.Port,
				Mode:         s.Mode,
				UntaggedVlan: s.Untagged,
				TaggedVlans:  s.Tagged,
			})
		}

		return facts, nil

	case models.FeatureInterfaces:
		facts := make([]models.Fact, 0, len(d.Interfaces))
		for _, i := range d.Interfaces {
			facts = append(facts, &models.InterfaceFact{
				Port:      i.Port,
				Used:      i.Used,
				OperUp:    i.OperUp,
				Desc:      i.Desc,
				SpeedMbps: i.Speed,
				Reserved:  i.Reserved,
			})
		}

		return facts, nil

	case models.FeatureLags:
		facts := make([]models.Fact, 0, len(d.Lags))
		for _, l := range d.Lags {
			facts = append(facts, &models.LagFact{
				Name:        l.Name,
				Enabled:     l.Enabled,
				MemberPorts: l.Ports,
			})
		}

		return facts, nil

	default:
		return nil, fmt.Errorf("%w: unknown feature %q", ErrBadDesign, feature)
	}
}

func (p *FileProvider) load(deviceName string) (*deviceDesign, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.cache[deviceName]; ok {
		return d, nil
	}

	path := filepath.Join(p.dir, deviceName+".yaml")

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDesign, deviceName)
		}

		return nil, fmt.Errorf("read design %s: %w", path, err)
	}

	var d deviceDesign
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadDesign, path, err)
	}

	p.cache[deviceName] = &d

	return &d, nil
}
