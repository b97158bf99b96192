package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/suportedesk/backend/internal/models"
)

const (
	sheetTeams          = "Equipes"
	sheetAgents         = "Agentes"
	sheetClassification = "Classificações"
)

// Workbook builds the xlsx annex with the raw per-team and per-agent
// metrics behind the report. Attachment failures are not fatal to the
// run, the caller decides whether to send without the annex.
func Workbook(snap models.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTeams); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	writeRow(f, sheetTeams, 1, "Equipe", "Atendimentos", "Semana anterior", "Variação %", "Tempo estratégico %")
	for i, sm := range snap.Supervisors {
		writeRow(f, sheetTeams, i+2, sm.SupervisorName, sm.CurrentTotal, sm.PreviousTotal, sm.PercentChange, sm.StrategicTimePercent)
	}

	if _, err := f.NewSheet(sheetAgents); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	writeRow(f, sheetAgents, 1, "Agente", "Equipe", "Atendimentos", "Semana anterior", "Variação", "Variação %", "Status")
	row := 2
	for _, sm := range snap.Supervisors {
		for _, am := range sm.Agents {
			writeRow(f, sheetAgents, row, am.AgentName, sm.SupervisorName, am.CurrentCount, am.PreviousCount, am.Change, am.ChangePercent, string(am.Risk))
			row++
		}
	}

	if _, err := f.NewSheet(sheetClassification); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	writeRow(f, sheetClassification, 1, "Classificação", "Ocorrências")
	labels := make([]string, 0, len(snap.ClassificationCounts))
	for label := range snap.ClassificationCounts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if snap.ClassificationCounts[labels[i]] != snap.ClassificationCounts[labels[j]] {
			return snap.ClassificationCounts[labels[i]] > snap.ClassificationCounts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for i, label := range labels {
		writeRow(f, sheetClassification, i+2, label, snap.ClassificationCounts[label])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		f.SetCellValue(sheet, cell, v)
	}
}
