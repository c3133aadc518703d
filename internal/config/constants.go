package config

import "fearcli/pkg/contracts"

// Application constants
const (
	// Application Info
	AppName    = "fearcli"
	AppVersion = contracts.Version

	// File Paths (relative to executable)
	DefaultDataDir        = "data"
	DefaultOutputDir      = "output"
	DefaultFigDir         = "output/figures"
	DefaultLogsDir        = "logs"
	DefaultComponentsFile = "files/TFC phase components.xlsx"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// VideoFreeze export layout
const (
	// HeaderMarker starts the cell that opens the header row of a component
	// export. Everything above it is instrument preamble.
	HeaderMarker = "Experiment"

	ExportAnimalColumn    = "Animal"
	ExportGroupColumn     = "Group"
	ExportComponentColumn = "Component Name"
	ExportFreezeColumn    = "Pct Component Time Freezing"
	ExportMotionColumn    = "Avg Motion Index"

	// FirstToneComponent ends the baseline period of train and tone sessions.
	FirstToneComponent = "tone-1"
)

// Trial windows, seconds relative to tone onset
const (
	DefaultTrialWindowStart = -20.0
	DefaultTrialWindowEnd   = 60.0
)

// Plot style defaults
const (
	TitleFontSize    = 40
	LabelFontSize    = 36
	LabelPad         = 5
	TickLabelSize    = 32
	LegendFontSize   = 18
	BinsPerMinute    = 3
	FreezingAxisName = "Freezing (%)"
	TimeAxisName     = "Time (mins)"
)

// DefaultPalette is the figure colour cycle: blue, red, orange, green, purple,
// cyan, salmon, yellow, gray.
var DefaultPalette = []string{
	"#2b88f0",
	"#FF0036",
	"#EF862E",
	"#28A649",
	"#9147B1",
	"#00B9B9",
	"#F97B7B",
	"#FFD85B",
	"#bdbdbd",
}
