package stats

// StatType is one of the tracked practice stat categories.
type StatType string

const (
	ThreePointMake StatType = "3PMAKE"
	ThreePointMiss StatType = "3PMISS"
	OffRebound     StatType = "OREB"
	DefRebound     StatType = "DREB"
	Assist         StatType = "ASSIST"
	Turnover       StatType = "TO"
)

// StatCategories lists the categories in display order.
var StatCategories = []StatType{
	ThreePointMake,
	ThreePointMiss,
	OffRebound,
	DefRebound,
	Assist,
	Turnover,
}

var StatLabels = map[StatType]string{
	ThreePointMake: "3 Point Make",
	ThreePointMiss: "3 Point Miss",
	OffRebound:     "Offensive Rebound",
	DefRebound:     "Defensive Rebound",
	Assist:         "Assist",
	Turnover:       "Turnover",
}

// Valid reports whether s is a known category.
func (s StatType) Valid() bool {
	_, ok := StatLabels[s]
	return ok
}

// leadersPerCategory is how many players each leaderboard shows.
const leadersPerCategory = 3

// Date layouts accepted for stat timestamps. The UI sends M/D/YYYY but
// older clients posted ISO timestamps or toLocaleString output.
var timestampLayouts = []string{
	"1/2/2006",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
}

// DateSheetLayout is the M/D/YYYY format used for date sheet names and
// attendance dates.
const DateSheetLayout = "1/2/2006"
