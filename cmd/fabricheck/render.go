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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/coppermesh/fabricheck/pkg/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// Color palette for dark terminal backgrounds.
const (
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorMuted   = lipgloss.Color("#6B7280")
	colorHeader  = lipgloss.Color("#3B82F6")
)

var (
	deviceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	passStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

func statusStyle(s models.Status) lipgloss.Style {
	switch s {
	case models.StatusPass:
		return passStyle
	case models.StatusWarn:
		return warnStyle
	case models.StatusInfo, models.StatusSkip:
		return mutedStyle
	default:
		return failStyle
	}
}

func render(w io.Writer, run *models.RunReport, format string) error {
	if format == outputJSON {
		return renderJSON(w, run)
	}

	renderTable(w, run)

	return nil
}

// jsonReport wraps the run with its derived summary so consumers do not
// have to re-derive gating state.
type jsonReport struct {
	*models.RunReport
	Status  models.Status  `json:"status"`
	Summary models.Summary `json:"summary"`
}

func renderJSON(w io.Writer, run *models.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jsonReport{
		RunReport: run,
		Status:    run.Status(),
		Summary:   run.Summarize(),
	})
}

func renderTable(w io.Writer, run *models.RunReport) {
	for i := range run.Reports {
		renderDevice(w, &run.Reports[i])
	}

	renderSummary(w, run)
}

func renderDevice(w io.Writer, report *models.DeviceReport) {
	status := report.Status()

	header := fmt.Sprintf("%s (%s)", report.Device.Name, report.Device.Host)
	fmt.Fprintf(w, "%s  %s\n", deviceStyle.Render(header), statusStyle(status).Render(string(status)))

	rows := deviceRows(report)
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  all checks passed"))
		fmt.Fprintln(w)

		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("FEATURE", "KEY", "STATUS", "DETAIL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return deviceStyle.Padding(0, 1)
			}

			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 2 {
				style = style.Foreground(rowColor(rows[row][2]))
			}

			return style
		}).
		Rows(rows...)

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
}

func rowColor(status string) lipgloss.Color {
	switch models.Status(status) {
	case models.StatusPass:
		return colorSuccess
	case models.StatusWarn:
		return colorWarning
	case models.StatusInfo, models.StatusSkip:
		return colorMuted
	default:
		return colorError
	}
}

// deviceRows lists everything that needs a human's attention: degraded
// items and feature-level errors. A fully green device yields no rows.
func deviceRows(report *models.DeviceReport) [][]string {
	var rows [][]string

	for i := range report.Results {
		res := &report.Results[i]

		if len(res.Items) == 0 && res.Status.Degrades() {
			rows = append(rows, []string{
				string(res.Feature), "-", string(res.Status),
				fmt.Sprintf("%s: %s", res.ErrClass, res.Err),
			})

			continue
		}

		for j := range res.Items {
			item := &res.Items[j]
			if !item.Status.Degrades() {
				continue
			}

			rows = append(rows, []string{
				string(item.Feature), item.Key, string(item.Status), itemDetail(item),
			})
		}
	}

	return rows
}

func itemDetail(item *models.CheckItem) string {
	switch item.Status {
	case models.StatusMissing:
		return "expected but not observed"
	case models.StatusExtra:
		return "observed but not in design"
	}

	parts := make([]string, 0, len(item.Diffs))

	for _, d := range item.Diffs {
		if d.Level == models.DiffSkip {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s: expected %s, observed %s", d.Field, d.Expected, d.Observed))
	}

	return strings.Join(parts, "; ")
}

func renderSummary(w io.Writer, run *models.RunReport) {
	summary := run.Summarize()
	status := run.Status()

	statuses := make([]models.Status, 0, len(summary.ByStatus))
	for s := range summary.ByStatus {
		statuses = append(statuses, s)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	counts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		counts = append(counts, fmt.Sprintf("%s=%d", s, summary.ByStatus[s]))
	}

	fmt.Fprintf(w, "%s %s  devices=%d features=%d  %s\n",
		deviceStyle.Render("run:"),
		statusStyle(status).Render(string(status)),
		summary.Devices,
		summary.Features,
		mutedStyle.Render(strings.Join(counts, " ")),
	)
}
