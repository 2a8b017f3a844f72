package models

import "fmt"

// NumFields is the number of columns in a team statistics row.
const NumFields = 9

// FieldNames lists the record field names in export order.
var FieldNames = [NumFields]string{
	"Team Name",
	"Year",
	"Wins",
	"Losses",
	"OT Losses",
	"Win %",
	"Goals For (GF)",
	"Goals Against (GA)",
	"+ / -",
}

// TeamRecord is one row of the team statistics table.
// Field order matches FieldNames and is significant for export.
type TeamRecord struct {
	TeamName     string `json:"Team Name"`
	Year         string `json:"Year"`
	Wins         string `json:"Wins"`
	Losses       string `json:"Losses"`
	OTLosses     string `json:"OT Losses"`
	WinPct       string `json:"Win %"`
	GoalsFor     string `json:"Goals For (GF)"`
	GoalsAgainst string `json:"Goals Against (GA)"`
	GoalDiff     string `json:"+ / -"`
}

// NewTeamRecord maps cell texts to fields by position. Cells beyond
// NumFields are ignored; fewer cells fail with ErrOutOfRange.
func NewTeamRecord(cells []string) (TeamRecord, error) {
	if len(cells) < NumFields {
		return TeamRecord{}, fmt.Errorf("%w: row has %d cells, want %d", ErrOutOfRange, len(cells), NumFields)
	}
	return TeamRecord{
		TeamName:     cells[0],
		Year:         cells[1],
		Wins:         cells[2],
		Losses:       cells[3],
		OTLosses:     cells[4],
		WinPct:       cells[5],
		GoalsFor:     cells[6],
		GoalsAgainst: cells[7],
		GoalDiff:     cells[8],
	}, nil
}

// Values returns the field values in FieldNames order.
func (r TeamRecord) Values() []string {
	return []string{
		r.TeamName,
		r.Year,
		r.Wins,
		r.Losses,
		r.OTLosses,
		r.WinPct,
		r.GoalsFor,
		r.GoalsAgainst,
		r.GoalDiff,
	}
}
